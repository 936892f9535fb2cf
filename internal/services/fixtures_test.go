package services

import (
	"fmt"
	"io"
	"log/slog"

	"gorm.io/datatypes"

	"github.com/SaidjonAlixon/testblok/internal/models"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// seedStudent stores a student account with the registration defaults: one
// attempt slot, free test unused, nothing granted.
func seedStudent(repo *memoryRepository, id string) *models.User {
	user := &models.User{
		ID:              id,
		FullName:        "Aziza Karimova",
		Email:           id + "@example.uz",
		Role:            models.RoleStudent,
		MaxTestAttempts: 1,
	}
	repo.users[id] = user
	repo.userOrder = append(repo.userOrder, id)
	return user
}

func seedAdmin(repo *memoryRepository, id string) *models.User {
	user := &models.User{
		ID:       id,
		FullName: "Bobur Adminov",
		Email:    id + "@example.uz",
		Role:     models.RoleAdmin,
	}
	repo.users[id] = user
	repo.userOrder = append(repo.userOrder, id)
	return user
}

// seedDirection stores an active direction with two subjects: a main one of
// three 3.1-point questions and a mandatory one of two 2.1-point questions.
// Every correct answer is A.
func seedDirection(repo *memoryRepository, id string, free bool) *models.Direction {
	direction := &models.Direction{
		ID:       id,
		Name:     "Huquqshunoslik",
		IsActive: true,
		IsFree:   free,
		Subjects: []models.Subject{
			seedSubject(id, "Matematika", models.SubjectMain, 3, 3.1),
			seedSubject(id, "Fizika", models.SubjectMandatory, 2, 2.1),
		},
	}
	if !free {
		direction.Price = 50000
	}
	repo.directions[id] = direction
	return direction
}

func seedSubject(directionID, name string, kind models.SubjectType, count int, points float64) models.Subject {
	subject := models.Subject{
		ID:                directionID + "-" + name,
		DirectionID:       directionID,
		Name:              name,
		Type:              kind,
		QuestionCount:     count,
		PointsPerQuestion: points,
	}
	for i := 0; i < count; i++ {
		subject.Questions = append(subject.Questions, models.Question{
			ID:        fmt.Sprintf("q-%s-%d", name, i),
			SubjectID: subject.ID,
			Text:      fmt.Sprintf("%s savol %d", name, i+1),
			Options: datatypes.NewJSONType(models.QuestionOptions{
				A: "to'g'ri", B: "noto'g'ri", C: "noto'g'ri", D: "noto'g'ri",
			}),
			CorrectAnswer: models.LabelA,
			Points:        points,
			Position:      i,
		})
	}
	return subject
}
