package admin

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	gormsqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"github.com/AdamsEmmanuel/Chatbot/internal/chat"
	"github.com/AdamsEmmanuel/Chatbot/internal/models"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:admin_%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(gormsqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&models.User{}, &chat.Session{}, &chat.Message{}); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

func seedUser(t *testing.T, db *gorm.DB, username string, isAdmin bool) *models.User {
	t.Helper()
	u := &models.User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: "x",
		IsActive:     true,
		IsAdmin:      isAdmin,
	}
	if err := db.Create(u).Error; err != nil {
		t.Fatalf("seed user %s: %v", username, err)
	}
	return u
}

func seedMessage(t *testing.T, db *gorm.DB, userID uint64, text string, at time.Time) *chat.Message {
	t.Helper()
	m := &chat.Message{UserID: userID, MessageText: text, CreatedAt: at}
	if err := db.Create(m).Error; err != nil {
		t.Fatalf("seed message: %v", err)
	}
	return m
}

func TestStats_CountsAndBuckets(t *testing.T) {
	db := openTestDB(t)
	svc := NewService(db)

	alice := seedUser(t, db, "alice", false)
	bob := seedUser(t, db, "bob", false)

	// Pin the reference instant to noon so the day buckets cannot shift
	// while the test runs near midnight.
	base := time.Now()
	now := time.Date(base.Year(), base.Month(), base.Day(), 12, 0, 0, 0, base.Location())
	// three for alice today, one for bob yesterday, one old one outside the week
	seedMessage(t, db, alice.ID, "a1", now)
	seedMessage(t, db, alice.ID, "a2", now)
	seedMessage(t, db, alice.ID, "a3", now)
	seedMessage(t, db, bob.ID, "b1", now.AddDate(0, 0, -1))
	seedMessage(t, db, bob.ID, "old", now.AddDate(0, 0, -10))

	stats, err := svc.Stats(context.Background(), now)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}

	if stats.TotalUsers != 2 {
		t.Fatalf("total users = %d, want 2", stats.TotalUsers)
	}
	if stats.TotalMessages != 5 {
		t.Fatalf("total messages = %d, want 5", stats.TotalMessages)
	}
	if stats.MessagesThisWeek != 4 {
		t.Fatalf("messages this week = %d, want 4", stats.MessagesThisWeek)
	}
	if stats.NewUsersThisWeek != 2 {
		t.Fatalf("new users this week = %d, want 2", stats.NewUsersThisWeek)
	}

	if len(stats.DailyMessages) != 7 {
		t.Fatalf("expected 7 day buckets, got %d", len(stats.DailyMessages))
	}
	if stats.DailyMessages[0].Count != 3 {
		t.Fatalf("today's bucket = %d, want 3", stats.DailyMessages[0].Count)
	}
	if stats.DailyMessages[1].Count != 1 {
		t.Fatalf("yesterday's bucket = %d, want 1", stats.DailyMessages[1].Count)
	}

	if len(stats.TopUsers) != 2 {
		t.Fatalf("expected 2 top users, got %d", len(stats.TopUsers))
	}
	if stats.TopUsers[0].Username != "alice" || stats.TopUsers[0].MessageCount != 3 {
		t.Fatalf("unexpected top user: %+v", stats.TopUsers[0])
	}
}

func TestToggleUserActive_FlipsNonAdmin(t *testing.T) {
	db := openTestDB(t)
	svc := NewService(db)

	u := seedUser(t, db, "carol", false)

	toggled, err := svc.ToggleUserActive(context.Background(), u.ID)
	if err != nil {
		t.Fatalf("toggle: %v", err)
	}
	if toggled.IsActive {
		t.Fatal("expected user to be deactivated")
	}

	toggled, err = svc.ToggleUserActive(context.Background(), u.ID)
	if err != nil {
		t.Fatalf("toggle back: %v", err)
	}
	if !toggled.IsActive {
		t.Fatal("expected user to be reactivated")
	}
}

func TestToggleUserActive_RejectsActiveAdmin(t *testing.T) {
	db := openTestDB(t)
	svc := NewService(db)

	admin := seedUser(t, db, "root", true)

	_, err := svc.ToggleUserActive(context.Background(), admin.ID)
	if !errors.Is(err, ErrAdminLockout) {
		t.Fatalf("expected ErrAdminLockout, got %v", err)
	}

	var reloaded models.User
	if err := db.First(&reloaded, admin.ID).Error; err != nil {
		t.Fatalf("reload admin: %v", err)
	}
	if !reloaded.IsActive {
		t.Fatal("admin flag must not have been flipped")
	}
}

func TestToggleUserActive_MissingUser(t *testing.T) {
	db := openTestDB(t)
	svc := NewService(db)

	_, err := svc.ToggleUserActive(context.Background(), 999)
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("expected record not found, got %v", err)
	}
}

func TestDeleteMessage(t *testing.T) {
	db := openTestDB(t)
	svc := NewService(db)

	u := seedUser(t, db, "dave", false)
	m := seedMessage(t, db, u.ID, "delete me", time.Now())

	if err := svc.DeleteMessage(context.Background(), m.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	var count int64
	if err := db.Model(&chat.Message{}).Count(&count).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 0 {
		t.Fatal("message not deleted")
	}

	if err := svc.DeleteMessage(context.Background(), m.ID); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("expected record not found on second delete, got %v", err)
	}
}
