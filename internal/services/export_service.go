package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"

	"github.com/campusworks/lms-quiz-service/internal/repositories"
	"github.com/campusworks/lms-quiz-service/internal/validator"
)

const rosterSheetName = "Roster"

type exportService struct {
	repo      repositories.Repository
	db        *gorm.DB
	logger    *slog.Logger
	validator *validator.Validator
	roster    RosterService
}

func NewExportService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger, validator *validator.Validator, roster RosterService) ExportService {
	return &exportService{
		repo:      repo,
		db:        db,
		logger:    logger,
		validator: validator,
		roster:    roster,
	}
}

// ExportRosterXLSX renders the caller's roster as an Excel workbook
// with one row per student/course/quiz combination. The roster service
// already applies the caller's visibility, so the export can't leak
// courses the caller may not manage.
func (s *exportService) ExportRosterXLSX(ctx context.Context, callerID string) ([]byte, error) {
	s.logger.Info("Exporting roster", "caller_id", callerID)

	roster, err := s.roster.Roster(ctx, callerID)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			s.logger.Warn("Failed to close workbook", "error", err)
		}
	}()

	index, err := f.NewSheet(rosterSheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("failed to remove default sheet: %w", err)
	}

	headers := []string{"Student ID", "Student Name", "Course", "Quiz", "Score"}
	for i, header := range headers {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return nil, fmt.Errorf("failed to compute header cell: %w", err)
		}
		if err := f.SetCellValue(rosterSheetName, cell, header); err != nil {
			return nil, fmt.Errorf("failed to write header: %w", err)
		}
	}

	row := 2
	for _, entry := range roster {
		for _, course := range entry.Courses {
			if len(course.Quizzes) == 0 {
				if err := s.writeRosterRow(f, row, entry, course, nil); err != nil {
					return nil, err
				}
				row++
				continue
			}
			for i := range course.Quizzes {
				if err := s.writeRosterRow(f, row, entry, course, &course.Quizzes[i]); err != nil {
					return nil, err
				}
				row++
			}
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to serialize workbook: %w", err)
	}

	s.logger.Info("Roster exported", "caller_id", callerID, "students", len(roster), "rows", row-2)
	return buf.Bytes(), nil
}

func (s *exportService) writeRosterRow(f *excelize.File, row int, entry *RosterEntry, course RosterCourse, quiz *QuizScore) error {
	values := []interface{}{entry.StudentID, entry.StudentName, course.CourseTitle}
	if quiz != nil {
		values = append(values, quiz.QuizTitle, quiz.Score)
	} else {
		values = append(values, "", "")
	}
	for i, value := range values {
		cell, err := excelize.CoordinatesToCellName(i+1, row)
		if err != nil {
			return fmt.Errorf("failed to compute cell: %w", err)
		}
		if err := f.SetCellValue(rosterSheetName, cell, value); err != nil {
			return fmt.Errorf("failed to write roster row %d: %w", row, err)
		}
	}
	return nil
}
