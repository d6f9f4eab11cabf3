package postgres

import (
	"context"

	"github.com/google/uuid"

	"github.com/carebook/scheduling-api/internal/model"
)

func (r *userRepository) GetContact(ctx context.Context, id uuid.UUID) (*model.UserContact, error) {
	query := `
		SELECT id, name, email
		FROM users
		WHERE id = $1
	`
	var contact model.UserContact
	if err := r.db.GetContext(ctx, &contact, query, id); err != nil {
		return nil, wrapDBErr("get user contact", err)
	}
	return &contact, nil
}
