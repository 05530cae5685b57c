package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/url"

	"nova-cli/internal/model"
)

func (c *Client) Folders(ctx context.Context, clientID string) ([]model.Folder, error) {
	q := url.Values{}
	if clientID != "" {
		q.Set("clientId", clientID)
	}
	// Some backend versions wrap the list in {folders: [...]}; accept both.
	var raw json.RawMessage
	if err := c.get(ctx, "/files/folders", q, &raw); err != nil {
		return nil, err
	}
	var plain []model.Folder
	if err := json.Unmarshal(raw, &plain); err == nil {
		return plain, nil
	}
	var wrapped struct {
		Folders []model.Folder `json:"folders"`
	}
	if err := json.Unmarshal(raw, &wrapped); err != nil {
		return nil, fmt.Errorf("decode folders: %w", err)
	}
	return wrapped.Folders, nil
}

type FolderContents struct {
	Folders []model.Folder `json:"folders"`
	Files   []model.File   `json:"files"`
}

func (c *Client) FolderContents(ctx context.Context, folderID string) (FolderContents, error) {
	var out FolderContents
	if err := c.get(ctx, "/files/folders/contents/"+url.PathEscape(folderID), nil, &out); err != nil {
		return FolderContents{}, err
	}
	return out, nil
}

type CreateFolderInput struct {
	Name     string `json:"name"`
	ParentID string `json:"parentId,omitempty"`
	ClientID string `json:"clientId"`
}

func (c *Client) CreateFolder(ctx context.Context, in CreateFolderInput) (model.Folder, error) {
	var out model.Folder
	if err := c.post(ctx, "/files/folders", in, &out); err != nil {
		return model.Folder{}, err
	}
	return out, nil
}

// DeleteFolder removes a folder and, recursively, everything under it.
func (c *Client) DeleteFolder(ctx context.Context, folderID string) error {
	q := url.Values{}
	q.Set("recursive", "true")
	return c.del(ctx, "/files/folders/"+url.PathEscape(folderID), q)
}

func (c *Client) MoveFile(ctx context.Context, fileID, folderID string) error {
	in := map[string]string{"folderId": folderID}
	return c.patch(ctx, "/files/"+url.PathEscape(fileID)+"/move", in, nil)
}

func (c *Client) DeleteFile(ctx context.Context, fileID string) error {
	return c.del(ctx, "/files/"+url.PathEscape(fileID), nil)
}

func (c *Client) MarkFileRead(ctx context.Context, fileID, userID string) error {
	in := map[string]string{"userId": userID}
	return c.patch(ctx, "/files/"+url.PathEscape(fileID)+"/mark-read", in, nil)
}

func (c *Client) FilesByTask(ctx context.Context, taskID string) ([]model.File, error) {
	var out []model.File
	if err := c.get(ctx, "/files/task/"+url.PathEscape(taskID), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// FileDownloadURL asks the backend for a short-lived download link.
func (c *Client) FileDownloadURL(ctx context.Context, fileID string) (string, error) {
	var out struct {
		DownloadURL string `json:"downloadUrl"`
	}
	if err := c.get(ctx, "/files/download/"+url.PathEscape(fileID), nil, &out); err != nil {
		return "", err
	}
	return out.DownloadURL, nil
}

// DownloadAll streams the server-generated archive for a folder into w.
// Pass-through only: the archive is built server-side.
func (c *Client) DownloadAll(ctx context.Context, folderID string, w io.Writer) error {
	return c.raw(ctx, "/files/folders/"+url.PathEscape(folderID)+"/download-all", w)
}

// PresignedUpload is step one of the upload protocol: the backend issues a
// time-limited write credential for the object store.
type PresignedUpload struct {
	PresignedURL string `json:"presignedUrl"`
	FileID       string `json:"fileId"`
	Key          string `json:"key"`
}

type PresignRequest struct {
	FileName string `json:"fileName"`
	FileType string `json:"fileType"`
	FolderID string `json:"folderId"`
	ClientID string `json:"clientId,omitempty"`
}

func (c *Client) PresignUpload(ctx context.Context, in PresignRequest) (PresignedUpload, error) {
	var out PresignedUpload
	if err := c.post(ctx, "/files/presigned-url", in, &out); err != nil {
		return PresignedUpload{}, err
	}
	return out, nil
}

// RegisterFile is step three: record the uploaded object's metadata.
type RegisterFileInput struct {
	FileID   string `json:"fileId"`
	Name     string `json:"name"`
	Type     string `json:"type"`
	Size     int64  `json:"size"`
	FolderID string `json:"folderId"`
	TaskID   string `json:"taskId,omitempty"`
	ClientID string `json:"clientId,omitempty"`
	Key      string `json:"key"`
}

func (c *Client) RegisterFile(ctx context.Context, in RegisterFileInput) (model.File, error) {
	var out model.File
	if err := c.post(ctx, "/files", in, &out); err != nil {
		return model.File{}, err
	}
	return out, nil
}
