// Package upload runs the three-step presigned upload protocol:
//
//	Requested   - backend issues a time-limited write credential
//	Transferred - raw bytes PUT directly to the object store
//	Registered  - backend records the object's metadata
//
// All three steps must succeed for the file to exist. There is no
// compensating rollback: a failure after Transferred leaves an orphaned blob
// behind, matching the backend's accepted at-least-once semantics. The step
// reached is reported so callers can say exactly what happened.
package upload

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"nova-cli/internal/api"
	"nova-cli/internal/model"
)

type Step int

const (
	StepNone Step = iota
	StepRequested
	StepTransferred
	StepRegistered
)

func (s Step) String() string {
	switch s {
	case StepRequested:
		return "requested"
	case StepTransferred:
		return "transferred"
	case StepRegistered:
		return "registered"
	default:
		return "none"
	}
}

// StepError wraps a failure with the last step that completed.
type StepError struct {
	Completed Step
	Err       error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("upload failed after step %q: %v", e.Completed, e.Err)
}

func (e *StepError) Unwrap() error { return e.Err }

// Input describes one file to upload.
type Input struct {
	Name        string
	ContentType string
	Size        int64
	Body        io.Reader

	FolderID string
	ClientID string
	TaskID   string // optional: attach to a task
}

// ProgressFunc receives byte counts during the transfer step.
type ProgressFunc func(sent, total int64)

type Uploader struct {
	api  *api.Client
	http *http.Client
}

func New(client *api.Client) *Uploader {
	return &Uploader{api: client, http: &http.Client{}}
}

// Upload runs the full protocol for one file.
func (u *Uploader) Upload(ctx context.Context, in Input, progress ProgressFunc) (model.File, error) {
	cred, err := u.api.PresignUpload(ctx, api.PresignRequest{
		FileName: in.Name,
		FileType: in.ContentType,
		FolderID: in.FolderID,
		ClientID: in.ClientID,
	})
	if err != nil {
		return model.File{}, &StepError{Completed: StepNone, Err: err}
	}

	if err := u.transfer(ctx, cred.PresignedURL, in, progress); err != nil {
		return model.File{}, &StepError{Completed: StepRequested, Err: err}
	}

	f, err := u.api.RegisterFile(ctx, api.RegisterFileInput{
		FileID:   cred.FileID,
		Name:     in.Name,
		Type:     in.ContentType,
		Size:     in.Size,
		FolderID: in.FolderID,
		TaskID:   in.TaskID,
		ClientID: in.ClientID,
		Key:      cred.Key,
	})
	if err != nil {
		// Orphaned blob: bytes are in the store but unregistered.
		return model.File{}, &StepError{Completed: StepTransferred, Err: err}
	}
	return f, nil
}

func (u *Uploader) transfer(ctx context.Context, dest string, in Input, progress ProgressFunc) error {
	body := io.Reader(in.Body)
	if progress != nil {
		body = &progressReader{r: in.Body, total: in.Size, report: progress}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, dest, body)
	if err != nil {
		return err
	}
	req.ContentLength = in.Size
	req.Header.Set("Content-Type", in.ContentType)

	resp, err := u.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("object store returned %d: %s", resp.StatusCode, string(b))
	}
	return nil
}

type progressReader struct {
	r      io.Reader
	sent   int64
	total  int64
	report ProgressFunc
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	if n > 0 {
		p.sent += int64(n)
		p.report(p.sent, p.total)
	}
	return n, err
}
