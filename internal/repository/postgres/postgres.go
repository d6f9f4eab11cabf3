package postgres

import (
	"github.com/jmoiron/sqlx"

	"github.com/carebook/scheduling-api/internal/repository"
)

type slotRepository struct {
	db *sqlx.DB
}

type blockedDateRepository struct {
	db *sqlx.DB
}

type appointmentRepository struct {
	db      *sqlx.DB
	history repository.HistoryRepository
}

type notificationRepository struct {
	db *sqlx.DB
}

type historyRepository struct {
	db *sqlx.DB
}

type userRepository struct {
	db *sqlx.DB
}

func NewSlotRepository(db *sqlx.DB) repository.SlotRepository {
	return &slotRepository{db: db}
}

func NewBlockedDateRepository(db *sqlx.DB) repository.BlockedDateRepository {
	return &blockedDateRepository{db: db}
}

func NewAppointmentRepository(db *sqlx.DB, history repository.HistoryRepository) repository.AppointmentRepository {
	return &appointmentRepository{db: db, history: history}
}

func NewNotificationRepository(db *sqlx.DB) repository.NotificationRepository {
	return &notificationRepository{db: db}
}

func NewHistoryRepository(db *sqlx.DB) repository.HistoryRepository {
	return &historyRepository{db: db}
}

func NewUserRepository(db *sqlx.DB) repository.UserRepository {
	return &userRepository{db: db}
}
