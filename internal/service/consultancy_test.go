package service

import (
	"context"
	"errors"
	"testing"

	"agrifarma/internal/database"
)

func validConsultantInput() ConsultantInput {
	years := 8
	rate := 50.0
	return ConsultantInput{
		Specialization:  "Irrigation systems",
		ExperienceYears: &years,
		HourlyRate:      &rate,
		Bio:             "Designs drip irrigation for smallholder farms.",
	}
}

func TestApply_MarksUserConsultant(t *testing.T) {
	db := newTestDB(t)
	svc := NewConsultancyService(db)
	ctx := context.Background()
	user := createUser(t, db, "farmerali", false)

	consultant, err := svc.Apply(ctx, actorFor(user), validConsultantInput())
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if consultant.Approved {
		t.Fatal("new consultant profiles must start pending moderation")
	}

	var reloaded database.User
	if err := db.First(&reloaded, user.ID).Error; err != nil {
		t.Fatalf("reload user: %v", err)
	}
	if !reloaded.IsConsultant {
		t.Fatal("is_consultant flag not set alongside profile creation")
	}
}

func TestApply_SecondProfileRejected(t *testing.T) {
	db := newTestDB(t)
	svc := NewConsultancyService(db)
	ctx := context.Background()
	user := createUser(t, db, "farmerali", false)

	if _, err := svc.Apply(ctx, actorFor(user), validConsultantInput()); err != nil {
		t.Fatalf("first apply: %v", err)
	}
	mustValidationError(t, errOnly(svc.Apply(ctx, actorFor(user), validConsultantInput())))

	var count int64
	if err := db.Model(&database.Consultant{}).Count(&count).Error; err != nil {
		t.Fatalf("count consultants: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected exactly 1 profile, got %d", count)
	}
}

func TestApply_RejectsInvalidInput(t *testing.T) {
	db := newTestDB(t)
	svc := NewConsultancyService(db)
	ctx := context.Background()
	user := createUser(t, db, "farmerali", false)

	cases := []struct {
		name   string
		mutate func(*ConsultantInput)
	}{
		{"missing specialization", func(in *ConsultantInput) { in.Specialization = "  " }},
		{"missing experience", func(in *ConsultantInput) { in.ExperienceYears = nil }},
		{"negative experience", func(in *ConsultantInput) { negative := -1; in.ExperienceYears = &negative }},
		{"missing rate", func(in *ConsultantInput) { in.HourlyRate = nil }},
		{"zero rate", func(in *ConsultantInput) { zero := 0.0; in.HourlyRate = &zero }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := validConsultantInput()
			tc.mutate(&in)
			mustValidationError(t, errOnly(svc.Apply(ctx, actorFor(user), in)))
		})
	}

	// 申请全部被拒时，账号不能带上顾问标志
	var reloaded database.User
	if err := db.First(&reloaded, user.ID).Error; err != nil {
		t.Fatalf("reload user: %v", err)
	}
	if reloaded.IsConsultant {
		t.Fatal("rejected applications must not flag the account")
	}
}

func TestAddReview(t *testing.T) {
	db := newTestDB(t)
	svc := NewConsultancyService(db)
	ctx := context.Background()
	consultantUser := createUser(t, db, "farmerali", false)
	reviewer := createUser(t, db, "client", false)

	consultant, err := svc.Apply(ctx, actorFor(consultantUser), validConsultantInput())
	if err != nil {
		t.Fatalf("apply: %v", err)
	}

	review, err := svc.AddReview(ctx, actorFor(reviewer), consultant.ID, ReviewInput{
		Rating:      5,
		Comment:     "Solved our irrigation layout in one call.",
		ServiceType: database.ServiceTypeVideo,
	})
	if err != nil {
		t.Fatalf("add review: %v", err)
	}
	if review.ConsultantID != consultant.ID || review.UserID != reviewer.ID {
		t.Fatalf("review wired to wrong rows: %+v", review)
	}

	reviews, err := svc.ListReviews(ctx, consultant.ID)
	if err != nil {
		t.Fatalf("list reviews: %v", err)
	}
	if len(reviews) != 1 {
		t.Fatalf("expected 1 review, got %d", len(reviews))
	}
}

func TestAddReview_RejectsInvalidInput(t *testing.T) {
	db := newTestDB(t)
	svc := NewConsultancyService(db)
	ctx := context.Background()
	consultantUser := createUser(t, db, "farmerali", false)
	reviewer := createUser(t, db, "client", false)

	consultant, err := svc.Apply(ctx, actorFor(consultantUser), validConsultantInput())
	if err != nil {
		t.Fatalf("apply: %v", err)
	}

	for _, rating := range []int{0, 6, -1} {
		mustValidationError(t, errOnly(svc.AddReview(ctx, actorFor(reviewer), consultant.ID, ReviewInput{
			Rating:      rating,
			ServiceType: database.ServiceTypePhone,
		})))
	}
	mustValidationError(t, errOnly(svc.AddReview(ctx, actorFor(reviewer), consultant.ID, ReviewInput{
		Rating:      3,
		ServiceType: "telepathy",
	})))
}

func TestAddReview_UnknownConsultant(t *testing.T) {
	db := newTestDB(t)
	svc := NewConsultancyService(db)
	reviewer := createUser(t, db, "client", false)

	_, err := svc.AddReview(context.Background(), actorFor(reviewer), 999, ReviewInput{
		Rating:      4,
		ServiceType: database.ServiceTypeVisit,
	})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
