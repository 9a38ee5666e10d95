package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/legendaryias/ias_mentor/models"
	"github.com/legendaryias/ias_mentor/store"
)

// AccessService attaches confirmed purchases to student profiles.
type AccessService struct {
	profiles store.ProfileStore
	now      func() time.Time
}

func NewAccessService(profiles store.ProfileStore) *AccessService {
	return &AccessService{profiles: profiles, now: time.Now}
}

// Grant adds the enrollment or material purchase paid for by p. It reports
// false without error when the student already holds the product.
func (s *AccessService) Grant(ctx context.Context, p *models.Payment) (bool, error) {
	user := &models.User{
		ID:       p.UserID,
		FullName: p.UserName,
		Email:    p.UserEmail,
		Phone:    p.UserPhone,
		Role:     models.RoleStudent,
	}
	if err := s.profiles.EnsureUser(ctx, user); err != nil {
		if !errors.Is(err, store.ErrDuplicate) {
			return false, fmt.Errorf("ensure profile %s: %w", p.UserID, err)
		}
		log.Printf("⚠️ Email %s already belongs to another profile, granting to %s anyway", p.UserEmail, p.UserID)
	}

	now := s.now()
	var (
		granted bool
		err     error
	)
	switch p.ProductCategory {
	case models.CategoryCourse:
		granted, err = s.profiles.AddEnrollment(ctx, &models.Enrollment{
			UserID:     p.UserID,
			CourseID:   p.ProductID,
			Title:      p.ProductTitle,
			Category:   models.CategoryCourse,
			Price:      p.Amount,
			PaymentID:  p.ID,
			Status:     models.EntryActive,
			EnrolledAt: now,
		})
	case models.CategoryMaterial:
		granted, err = s.profiles.AddPurchase(ctx, &models.MaterialPurchase{
			UserID:      p.UserID,
			MaterialID:  p.ProductID,
			Title:       p.ProductTitle,
			Type:        models.CategoryMaterial,
			Price:       p.Amount,
			PaymentID:   p.ID,
			Status:      models.EntryActive,
			PurchasedAt: now,
		})
	default:
		return false, validationError("unknown product category %q", p.ProductCategory)
	}
	if err != nil {
		return false, fmt.Errorf("grant %s %s to %s: %w", p.ProductCategory, p.ProductID, p.UserID, err)
	}

	result := "granted"
	if !granted {
		result = "already_held"
	}
	accessGrantsTotal.WithLabelValues(string(p.ProductCategory), result).Inc()
	return granted, nil
}

// Enrollments lists the user's courses, one entry per course id.
func (s *AccessService) Enrollments(ctx context.Context, userID string) ([]models.Enrollment, error) {
	entries, err := s.profiles.Enrollments(ctx, userID)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool, len(entries))
	out := make([]models.Enrollment, 0, len(entries))
	for _, e := range entries {
		if seen[e.CourseID] {
			continue
		}
		seen[e.CourseID] = true
		out = append(out, e)
	}
	return out, nil
}

// Purchases lists the user's study materials, one entry per material id.
func (s *AccessService) Purchases(ctx context.Context, userID string) ([]models.MaterialPurchase, error) {
	entries, err := s.profiles.Purchases(ctx, userID)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool, len(entries))
	out := make([]models.MaterialPurchase, 0, len(entries))
	for _, e := range entries {
		if seen[e.MaterialID] {
			continue
		}
		seen[e.MaterialID] = true
		out = append(out, e)
	}
	return out, nil
}

func (s *AccessService) RecordDownload(ctx context.Context, userID, materialID string) (*models.MaterialPurchase, error) {
	purchase, err := s.profiles.IncrementDownload(ctx, userID, materialID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("%w: material %s was not purchased by %s", ErrNotFound, materialID, userID)
	}
	return purchase, err
}
