package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/sahayak-labs/paathshala-api/internal/models"
)

func TestProgramListOrdersNewestFirst(t *testing.T) {
	db := setupTestDB(t)
	repo := NewProgramRepository(db)

	older := models.Program{Title: "Older", Code: "x", ClassID: 1}
	require.NoError(t, db.Create(&older).Error)
	require.NoError(t, db.Model(&older).Update("created_at", time.Now().Add(-time.Hour)).Error)
	newer := models.Program{Title: "Newer", Code: "y", ClassID: 1}
	require.NoError(t, db.Create(&newer).Error)

	programs, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, programs, 2)
	require.Equal(t, "Newer", programs[0].Title)
}

func TestProgramListByClass(t *testing.T) {
	db := setupTestDB(t)
	repo := NewProgramRepository(db)

	require.NoError(t, db.Create(&models.Program{Title: "A", Code: "x", ClassID: 1}).Error)
	require.NoError(t, db.Create(&models.Program{Title: "B", Code: "y", ClassID: 2}).Error)

	programs, err := repo.ListByClass(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, programs, 1)
	require.Equal(t, "B", programs[0].Title)
}

func TestProgramDeleteRemovesDependents(t *testing.T) {
	db := setupTestDB(t)
	repo := NewProgramRepository(db)

	program := seedProgram(t, db, 1)
	keepAlive := seedProgram(t, db, 1)

	require.NoError(t, db.Create(&models.Summary{ProgramID: program.ID, Language: "en", Summary: "s"}).Error)
	require.NoError(t, db.Create(&models.Summary{ProgramID: keepAlive.ID, Language: "en", Summary: "s"}).Error)
	doomedQuiz := newQuiz(program.ID, 3)
	require.NoError(t, db.Create(&doomedQuiz).Error)
	survivorQuiz := newQuiz(keepAlive.ID, 3)
	require.NoError(t, db.Create(&survivorQuiz).Error)
	doomedSubmission := models.Submission{ProgramID: program.ID, StudentID: 3, Code: "x", QuizID: doomedQuiz.ID}
	require.NoError(t, db.Create(&doomedSubmission).Error)
	survivorSubmission := models.Submission{ProgramID: keepAlive.ID, StudentID: 3, Code: "y", QuizID: survivorQuiz.ID}
	require.NoError(t, db.Create(&survivorSubmission).Error)

	require.NoError(t, repo.Delete(context.Background(), program.ID))

	_, err := repo.GetByID(context.Background(), program.ID)
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)

	var summaryCount, quizCount, submissionCount int64
	require.NoError(t, db.Model(&models.Summary{}).Where("program_id = ?", program.ID).Count(&summaryCount).Error)
	require.Zero(t, summaryCount)
	require.NoError(t, db.Model(&models.Quiz{}).Where("program_id = ?", program.ID).Count(&quizCount).Error)
	require.Zero(t, quizCount)
	// Submissions must not rely on a DB-level cascade; not every store
	// creates the constraint.
	require.NoError(t, db.Model(&models.Submission{}).Where("program_id = ?", program.ID).Count(&submissionCount).Error)
	require.Zero(t, submissionCount)

	// Unrelated rows survive.
	_, err = repo.GetByID(context.Background(), keepAlive.ID)
	require.NoError(t, err)
	require.NoError(t, db.Model(&models.Quiz{}).Where("program_id = ?", keepAlive.ID).Count(&quizCount).Error)
	require.EqualValues(t, 1, quizCount)
	require.NoError(t, db.Model(&models.Submission{}).Where("program_id = ?", keepAlive.ID).Count(&submissionCount).Error)
	require.EqualValues(t, 1, submissionCount)
}

func TestSummaryReplaceSwapsAtomically(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSummaryRepository(db)
	program := seedProgram(t, db, 1)

	initial := []models.Summary{
		{ProgramID: program.ID, Language: "en", Summary: "old english"},
		{ProgramID: program.ID, Language: "ka", Summary: "old kannada"},
	}
	require.NoError(t, repo.Replace(context.Background(), program.ID, initial))

	regenerated := []models.Summary{
		{ProgramID: program.ID, Language: "en", Summary: "new english"},
		{ProgramID: program.ID, Language: "fr", Summary: "new french"},
	}
	require.NoError(t, repo.Replace(context.Background(), program.ID, regenerated))

	summaries, err := repo.ListByProgram(context.Background(), program.ID)
	require.NoError(t, err)
	require.Len(t, summaries, 2)
	require.Equal(t, "en", summaries[0].Language)
	require.Equal(t, "new english", summaries[0].Summary)
	require.Equal(t, "fr", summaries[1].Language)

	_, err = repo.GetByProgramAndLanguage(context.Background(), program.ID, "ka")
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
