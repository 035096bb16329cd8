package service

import (
	"bytes"
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/rec-ctp-api/internal/models"
	appErrors "github.com/noah-isme/rec-ctp-api/pkg/errors"
	"github.com/noah-isme/rec-ctp-api/pkg/storage"
)

type mockUploadRepo struct {
	files map[string]*models.UploadedFile
}

func (m *mockUploadRepo) Create(ctx context.Context, file *models.UploadedFile) error {
	if m.files == nil {
		m.files = map[string]*models.UploadedFile{}
	}
	m.files[file.ID] = file
	return nil
}

func (m *mockUploadRepo) FindByID(ctx context.Context, id string) (*models.UploadedFile, error) {
	if f, ok := m.files[id]; ok {
		return f, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockUploadRepo) Delete(ctx context.Context, id string) error {
	delete(m.files, id)
	return nil
}

func pdfPayload() []byte {
	return append([]byte("%PDF-1.4\n"), bytes.Repeat([]byte("x"), 64)...)
}

func newUploadService(t *testing.T, repo *mockUploadRepo, cfg UploadConfig) *UploadService {
	t.Helper()
	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	signer := storage.NewSignedURLSigner("test-secret", 0)
	return NewUploadService(repo, &mockAuditRepo{}, store, nil, signer, nil, cfg, nil)
}

func TestUploadServiceStorePDF(t *testing.T) {
	repo := &mockUploadRepo{}
	svc := newUploadService(t, repo, UploadConfig{AllowedMIMEs: []string{"application/pdf"}})

	payload := pdfPayload()
	resp, err := svc.Store(context.Background(), studentClaims("u1"), "proof.pdf", int64(len(payload)), bytes.NewReader(payload))
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", resp.MimeType)
	assert.Equal(t, "proof.pdf", resp.Filename)
	assert.Equal(t, "u1", resp.UploadedBy)
	assert.Contains(t, resp.DownloadURL, "token=")
	assert.Len(t, repo.files, 1)
}

func TestUploadServiceStoreRejectsMimeType(t *testing.T) {
	svc := newUploadService(t, &mockUploadRepo{}, UploadConfig{AllowedMIMEs: []string{"application/pdf"}})

	payload := []byte("just some plain text, certainly not a pdf")
	_, err := svc.Store(context.Background(), studentClaims("u1"), "notes.txt", int64(len(payload)), bytes.NewReader(payload))
	assertErrorCode(t, err, appErrors.ErrValidation.Code)
}

func TestUploadServiceStoreRejectsOversize(t *testing.T) {
	svc := newUploadService(t, &mockUploadRepo{}, UploadConfig{MaxFileSizeBytes: 16, AllowedMIMEs: []string{"application/pdf"}})

	payload := pdfPayload()
	_, err := svc.Store(context.Background(), studentClaims("u1"), "proof.pdf", int64(len(payload)), bytes.NewReader(payload))
	assertErrorCode(t, err, appErrors.ErrValidation.Code)
}

func TestUploadServiceOpenRoundTrip(t *testing.T) {
	repo := &mockUploadRepo{}
	svc := newUploadService(t, repo, UploadConfig{AllowedMIMEs: []string{"application/pdf"}})

	payload := pdfPayload()
	stored, err := svc.Store(context.Background(), studentClaims("u1"), "proof.pdf", int64(len(payload)), bytes.NewReader(payload))
	require.NoError(t, err)

	token := stored.DownloadURL[len("/api/v1/files/download?token="):]
	meta, f, err := svc.Open(context.Background(), studentClaims("u1"), token)
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, stored.ID, meta.ID)
}

func TestUploadServiceOpenRefusesForeignStudent(t *testing.T) {
	repo := &mockUploadRepo{}
	svc := newUploadService(t, repo, UploadConfig{AllowedMIMEs: []string{"application/pdf"}})

	payload := pdfPayload()
	stored, err := svc.Store(context.Background(), studentClaims("u1"), "proof.pdf", int64(len(payload)), bytes.NewReader(payload))
	require.NoError(t, err)

	token := stored.DownloadURL[len("/api/v1/files/download?token="):]
	_, _, err = svc.Open(context.Background(), studentClaims("u2"), token)
	assertErrorCode(t, err, appErrors.ErrNotOwner.Code)

	_, f, err := svc.Open(context.Background(), facultyClaims("f1"), token)
	require.NoError(t, err)
	f.Close()
}

func TestUploadServiceOpenRejectsTamperedToken(t *testing.T) {
	svc := newUploadService(t, &mockUploadRepo{}, UploadConfig{})

	_, _, err := svc.Open(context.Background(), studentClaims("u1"), "not.a.valid.token")
	assertErrorCode(t, err, appErrors.ErrUnauthorized.Code)
}
