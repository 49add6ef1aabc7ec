package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// FolderStore defines the interface for folder storage operations.
type FolderStore interface {
	// Create inserts a folder. An ID is generated when empty.
	Create(ctx context.Context, folder *Folder) error
	// GetByID gets a folder owned by userID. Returns ErrNotFound otherwise.
	GetByID(ctx context.Context, folderID, userID string) (*Folder, error)
	// GetOrCreateByName returns the user's folder with the given name, creating it if missing.
	GetOrCreateByName(ctx context.Context, userID, name string) (*Folder, error)
}

// FolderRepo provides methods for folder operations.
// It implements the FolderStore interface.
type FolderRepo struct {
	db *sql.DB
}

// NewFolderRepo creates a new FolderRepo.
func NewFolderRepo(db *sql.DB) *FolderRepo {
	return &FolderRepo{db: db}
}

// Create inserts a folder.
func (r *FolderRepo) Create(ctx context.Context, folder *Folder) error {
	if folder.ID == "" {
		folder.ID = uuid.New().String()
	}
	if folder.CreatedAt.IsZero() {
		folder.CreatedAt = time.Now().UTC()
	}

	_, err := r.db.ExecContext(ctx,
		"INSERT INTO folders (id, user_id, name, created_at) VALUES (?, ?, ?, ?)",
		folder.ID, folder.UserID, folder.Name, formatTime(folder.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to insert folder: %w", err)
	}
	return nil
}

// GetByID gets a folder owned by userID.
func (r *FolderRepo) GetByID(ctx context.Context, folderID, userID string) (*Folder, error) {
	var folder Folder
	var createdAt string

	err := r.db.QueryRowContext(ctx,
		"SELECT id, user_id, name, created_at FROM folders WHERE id = ? AND user_id = ?",
		folderID, userID,
	).Scan(&folder.ID, &folder.UserID, &folder.Name, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query folder: %w", err)
	}

	folder.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, err
	}
	return &folder, nil
}

// GetOrCreateByName returns the user's folder with the given name, creating it if missing.
// If several folders share the name, the oldest one is returned.
func (r *FolderRepo) GetOrCreateByName(ctx context.Context, userID, name string) (*Folder, error) {
	var folder Folder
	var createdAt string

	err := r.db.QueryRowContext(ctx,
		"SELECT id, user_id, name, created_at FROM folders WHERE user_id = ? AND name = ? ORDER BY created_at, id LIMIT 1",
		userID, name,
	).Scan(&folder.ID, &folder.UserID, &folder.Name, &createdAt)
	if err == nil {
		folder.CreatedAt, err = parseTime(createdAt)
		if err != nil {
			return nil, err
		}
		return &folder, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("failed to query folder by name: %w", err)
	}

	folder = Folder{UserID: userID, Name: name}
	if err := r.Create(ctx, &folder); err != nil {
		return nil, err
	}
	return &folder, nil
}
