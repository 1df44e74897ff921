package testfixtures

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/example/chamada/internal/application"
)

var studentCounter uint64

var referenceTime = time.Date(2024, time.January, 10, 13, 0, 0, 0, time.UTC)

// ReferenceTime returns the canonical baseline timestamp used by fixtures.
func ReferenceTime() time.Time {
	return referenceTime
}

// StudentOption configures a generated student.
type StudentOption func(*application.Student)

// WithCourse sets the course and period of the generated student.
func WithCourse(curso, periodo string) StudentOption {
	return func(s *application.Student) {
		s.Curso = curso
		s.Periodo = periodo
	}
}

// WithName sets the student name.
func WithName(nome string) StudentOption {
	return func(s *application.Student) { s.Nome = nome }
}

// NewStudent returns a deterministic student in DSM period 1 with a unique RA.
func NewStudent(opts ...StudentOption) application.Student {
	idx := atomic.AddUint64(&studentCounter, 1)
	student := application.Student{
		RA:      fmt.Sprintf("2024%05d", idx),
		Nome:    fmt.Sprintf("Aluno %03d", idx),
		Curso:   "DSM",
		Periodo: "1",
	}
	for _, opt := range opts {
		opt(&student)
	}
	return student
}

// SampleRoster returns a small roster spanning two courses and several
// periods, including accented names and multi-digit periods.
func SampleRoster() []application.Student {
	return []application.Student{
		{RA: "1", Nome: "Ana", Curso: "DSM", Periodo: "1"},
		{RA: "2", Nome: "Bia", Curso: "DSM", Periodo: "1"},
		{RA: "3", Nome: "Érica", Curso: "DSM", Periodo: "2"},
		{RA: "4", Nome: "Caio", Curso: "DSM", Periodo: "10"},
		{RA: "5", Nome: "Zeca", Curso: "ADS", Periodo: "2"},
		{RA: "6", Nome: "davi", Curso: "ADS", Periodo: "1"},
	}
}

// Entrada builds the upsert input for an entry session.
func Entrada(date, course, period string, ras ...string) application.SessionInput {
	return application.SessionInput{
		Key:        application.SessionKey{Date: date, Course: course, Period: period, Type: application.SessionEntrada},
		PresentRAs: ras,
	}
}

// Saida builds the upsert input for an exit session.
func Saida(date, course, period string, ras ...string) application.SessionInput {
	input := Entrada(date, course, period, ras...)
	input.Key.Type = application.SessionSaida
	return input
}
