package openai

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
)

// PurposeUserData marks files uploaded for retrieval by the assistant.
const PurposeUserData = "user_data"

// File is an uploaded file object.
type File struct {
	ID        string `json:"id"`
	Object    string `json:"object"`
	Bytes     int64  `json:"bytes"`
	CreatedAt int64  `json:"created_at"`
	Filename  string `json:"filename"`
	Purpose   string `json:"purpose"`
}

// VectorStoreFile is the attachment of a file to a vector store.
type VectorStoreFile struct {
	ID            string `json:"id"`
	Object        string `json:"object"`
	Status        string `json:"status"`
	VectorStoreID string `json:"vector_store_id"`
	UsageBytes    int64  `json:"usage_bytes"`
}

// UploadFile stores raw bytes under filename with the declared purpose.
func (c *Client) UploadFile(ctx context.Context, filename string, content []byte, purpose string) (*File, error) {
	filename = strings.TrimSpace(filename)
	if filename == "" {
		return nil, errors.New("filename is required")
	}
	if purpose == "" {
		purpose = PurposeUserData
	}

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	if err := writer.WriteField("purpose", purpose); err != nil {
		return nil, err
	}
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return nil, err
	}
	if _, err := part.Write(content); err != nil {
		return nil, err
	}
	if err := writer.Close(); err != nil {
		return nil, err
	}

	req, err := c.newRequest(ctx, http.MethodPost, "/files", &body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	var file File
	if err := c.do(req, &file); err != nil {
		return nil, fmt.Errorf("upload %s: %w", filename, err)
	}
	return &file, nil
}

// AttachVectorStoreFile adds an uploaded file to a vector store for search.
func (c *Client) AttachVectorStoreFile(ctx context.Context, vectorStoreID, fileID string) (*VectorStoreFile, error) {
	if strings.TrimSpace(vectorStoreID) == "" {
		return nil, errors.New("vector store id is required")
	}
	if strings.TrimSpace(fileID) == "" {
		return nil, errors.New("file id is required")
	}

	path := "/vector_stores/" + url.PathEscape(vectorStoreID) + "/files"
	var attached VectorStoreFile
	if err := c.doJSON(ctx, http.MethodPost, path, map[string]string{"file_id": fileID}, &attached); err != nil {
		return nil, fmt.Errorf("attach %s to %s: %w", fileID, vectorStoreID, err)
	}
	return &attached, nil
}
