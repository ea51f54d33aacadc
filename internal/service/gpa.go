package service

import (
	"math"

	"github.com/noah-isme/academic-ledger/internal/models"
)

// ComputeSGPA returns the credit-weighted mean grade point rounded to two
// decimals, or 0 when the courses carry no credits.
func ComputeSGPA(courses []models.CourseGrade) float64 {
	var points, credits float64
	for _, c := range courses {
		points += c.GradePoint * c.Credits
		credits += c.Credits
	}
	if credits == 0 {
		return 0
	}
	return round2(points / credits)
}

// ComputeCGPA applies the same weighting across every course of every record.
func ComputeCGPA(records []models.AcademicRecord) float64 {
	all := make([]models.CourseGrade, 0)
	for _, r := range records {
		all = append(all, r.Courses...)
	}
	return ComputeSGPA(all)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
