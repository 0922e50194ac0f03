package seeder

import (
	"context"

	"taskboard/internal/app/auth"
	"taskboard/internal/app/board"
	"taskboard/internal/app/task"
	"taskboard/internal/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	DemoEmail    = "demo@taskboard.local"
	DemoPassword = "demo1234"
)

type demoTask struct {
	column   int
	title    string
	priority models.Priority
	items    []string
}

var demoTasks = []demoTask{
	{column: 0, title: "Sketch the release checklist", priority: models.PriorityHigh, items: []string{"Changelog", "Migration notes"}},
	{column: 0, title: "Invite the team", priority: models.PriorityMedium},
	{column: 1, title: "Wire up the realtime board", priority: models.PriorityHigh},
	{column: 2, title: "Create the first board", priority: models.PriorityLow},
}

// Seeder fills an empty database with a demo account and board.
type Seeder struct {
	db     *gorm.DB
	auth   auth.Service
	boards board.Service
	tasks  task.Service
	logger *zap.Logger
}

func NewSeeder(db *gorm.DB, auth auth.Service, boards board.Service, tasks task.Service, logger *zap.Logger) *Seeder {
	return &Seeder{
		db:     db,
		auth:   auth,
		boards: boards,
		tasks:  tasks,
		logger: logger,
	}
}

func (s *Seeder) Seed(ctx context.Context) error {
	s.logger.Info("Running database seeders...")

	if err := s.seedDemo(ctx); err != nil {
		return err
	}

	s.logger.Info("Database seeders completed successfully")
	return nil
}

func (s *Seeder) seedDemo(ctx context.Context) error {
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.User{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		s.logger.Info("Users already exist, skipping seed")
		return nil
	}

	account, err := s.auth.Register(ctx, auth.RegisterRequest{Name: "Demo", Email: DemoEmail, Password: DemoPassword})
	if err != nil {
		return err
	}
	boards, err := s.boards.List(ctx, account.User.ID)
	if err != nil {
		return err
	}
	if len(boards) == 0 {
		return nil
	}
	b := boards[0]

	for _, dt := range demoTasks {
		checklist := make([]models.ChecklistItem, 0, len(dt.items))
		for _, text := range dt.items {
			checklist = append(checklist, models.ChecklistItem{Text: text})
		}
		_, err := s.tasks.Create(ctx, b.ID, account.User.ID, task.CreateInput{
			Title:     dt.title,
			Priority:  dt.priority,
			Checklist: checklist,
			ColumnID:  b.Columns[dt.column].ID,
		})
		if err != nil {
			return err
		}
	}

	s.logger.Info("Seeded demo account", zap.String("email", DemoEmail), zap.Int("tasks", len(demoTasks)))
	return nil
}
