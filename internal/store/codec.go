package store

import (
	"fmt"
	"time"

	jsoniter "github.com/json-iterator/go"

	"github.com/me/mesas/pkg/model"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// boardRow is the flat column representation shared by both drivers.
type boardRow struct {
	ID        string `db:"id"`
	Subject   string `db:"subject"`
	Date      string `db:"date"`
	Time      string `db:"time"`
	Room      string `db:"room"`
	Status    string `db:"status"`
	Examiners string `db:"examiners"`
	CreatedAt string `db:"created_at"`
	UpdatedAt string `db:"updated_at"`
}

type reminderRow struct {
	ID          string  `db:"id"`
	BoardID     string  `db:"board_id"`
	HoursBefore int     `db:"hours_before"`
	Sent        bool    `db:"sent"`
	CreatedAt   string  `db:"created_at"`
	SentAt      *string `db:"sent_at"`
}

func encodeExaminers(examiners []model.ExaminerAssignment) (string, error) {
	if examiners == nil {
		examiners = []model.ExaminerAssignment{}
	}
	data, err := json.Marshal(examiners)
	if err != nil {
		return "", fmt.Errorf("marshal examiners: %w", err)
	}
	return string(data), nil
}

func toRow(b *model.Board) (boardRow, error) {
	examiners, err := encodeExaminers(b.Examiners)
	if err != nil {
		return boardRow{}, err
	}
	return boardRow{
		ID:        b.ID,
		Subject:   b.Subject,
		Date:      b.Date,
		Time:      b.Time,
		Room:      b.Room,
		Status:    string(b.Status),
		Examiners: examiners,
		CreatedAt: b.CreatedAt.UTC().Format(time.RFC3339Nano),
		UpdatedAt: b.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}, nil
}

func (r boardRow) board() (*model.Board, error) {
	b := &model.Board{
		ID:      r.ID,
		Subject: r.Subject,
		Date:    r.Date,
		Time:    r.Time,
		Room:    r.Room,
		Status:  model.BoardStatus(r.Status),
	}
	if err := json.Unmarshal([]byte(r.Examiners), &b.Examiners); err != nil {
		return nil, fmt.Errorf("unmarshal examiners of %s: %w", r.ID, err)
	}
	b.CreatedAt, _ = time.Parse(time.RFC3339Nano, r.CreatedAt)
	b.UpdatedAt, _ = time.Parse(time.RFC3339Nano, r.UpdatedAt)
	return b, nil
}

func (r reminderRow) reminder() *model.Reminder {
	rem := &model.Reminder{
		ID:          r.ID,
		BoardID:     r.BoardID,
		HoursBefore: r.HoursBefore,
		Sent:        r.Sent,
	}
	rem.CreatedAt, _ = time.Parse(time.RFC3339Nano, r.CreatedAt)
	if r.SentAt != nil {
		if t, err := time.Parse(time.RFC3339Nano, *r.SentAt); err == nil {
			rem.SentAt = &t
		}
	}
	return rem
}

func rowsToBoards(rows []boardRow) ([]*model.Board, error) {
	boards := make([]*model.Board, 0, len(rows))
	for _, r := range rows {
		b, err := r.board()
		if err != nil {
			return nil, err
		}
		boards = append(boards, b)
	}
	return boards, nil
}
