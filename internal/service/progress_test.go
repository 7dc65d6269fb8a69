package service

import (
	"testing"
	"time"

	"imantap/internal/domain"
	"imantap/internal/repository"
	"imantap/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

const (
	testRamadanStart     = "2026-02-19"
	testPreparationStart = "2026-02-09"
)

func newProgressService(users repository.UserRepository) *ProgressService {
	return NewProgressService(users, nil, testRamadanStart, testPreparationStart, time.UTC, testutil.NewTestLogger())
}

func TestProgressService_Reconcile_ScoresTodaysTasks(t *testing.T) {
	svc := newProgressService(nil)

	u := testutil.NewTestUser(1, "ABC123")
	today := "2026-02-20" // day_2 of Ramadan

	upd := &domain.ProgressUpdate{
		Progress: domain.ProgressMap{
			"day_2": {"fajr": true, "fasting": true},
		},
	}

	res := svc.Reconcile(u, upd, today)

	// Streak 0 at sync start, multiplier 1.0: 50 + 100.
	assert.Equal(t, 150, res.XPAdded)
	assert.Equal(t, 1.0, res.Multiplier)
	assert.ElementsMatch(t, []string{"fajr", "fasting"}, res.NewTasks)
	assert.True(t, u.EarnedTasks.HasEarned(today, "fajr"))
	assert.True(t, u.EarnedTasks.HasEarned(today, "fasting"))
}

func TestProgressService_Reconcile_AppliesStreakMultiplier(t *testing.T) {
	svc := newProgressService(nil)

	u := testutil.NewTestUser(1, "ABC123")
	u.CurrentStreak = 5

	upd := &domain.ProgressUpdate{
		Progress: domain.ProgressMap{"day_1": {"fajr": true}},
	}

	res := svc.Reconcile(u, upd, testRamadanStart)

	// Multiplier is taken before any streak increment: floor(50 * 1.5).
	assert.Equal(t, 1.5, res.Multiplier)
	assert.Equal(t, 75, res.XPAdded)
}

func TestProgressService_Reconcile_SecondSyncIsIdempotent(t *testing.T) {
	svc := newProgressService(nil)

	u := testutil.NewTestUser(1, "ABC123")
	today := testRamadanStart

	upd := &domain.ProgressUpdate{
		Progress: domain.ProgressMap{"day_1": {"fajr": true, "quranRead": true}},
	}

	first := svc.Reconcile(u, upd, today)
	assert.Equal(t, 100, first.XPAdded)

	second := svc.Reconcile(u, upd, today)
	assert.Equal(t, 0, second.XPAdded)
	assert.Empty(t, second.NewTasks)
	assert.Len(t, u.EarnedTasks[today], 2)
}

func TestProgressService_Reconcile_ClearingFlagNeverRevokes(t *testing.T) {
	svc := newProgressService(nil)

	u := testutil.NewTestUser(1, "ABC123")
	today := testRamadanStart

	earn := &domain.ProgressUpdate{
		Progress: domain.ProgressMap{"day_1": {"fajr": true}},
	}
	res := svc.Reconcile(u, earn, today)
	assert.Equal(t, 50, res.XPAdded)

	clear := &domain.ProgressUpdate{
		Progress: domain.ProgressMap{"day_1": {"fajr": false}},
	}
	res = svc.Reconcile(u, clear, today)

	assert.Equal(t, 0, res.XPAdded)
	// Display state follows the payload, the ledger does not.
	assert.False(t, u.Progress["day_1"]["fajr"])
	assert.True(t, u.EarnedTasks.HasEarned(today, "fajr"))

	// Re-checking the same task later that day earns nothing again.
	res = svc.Reconcile(u, earn, today)
	assert.Equal(t, 0, res.XPAdded)
	assert.True(t, u.Progress["day_1"]["fajr"])
}

func TestProgressService_Reconcile_NonTodayKeysStoredNotScored(t *testing.T) {
	svc := newProgressService(nil)

	u := testutil.NewTestUser(1, "ABC123")
	today := "2026-02-21" // day_3

	upd := &domain.ProgressUpdate{
		Progress: domain.ProgressMap{
			"day_1": {"fajr": true},
			"day_2": {"fasting": true},
			"day_3": {"dhuhr": true},
		},
	}

	res := svc.Reconcile(u, upd, today)

	assert.Equal(t, 50, res.XPAdded)
	assert.Equal(t, []string{"dhuhr"}, res.NewTasks)
	// All keys persisted for display regardless of scoring.
	assert.True(t, u.Progress["day_1"]["fajr"])
	assert.True(t, u.Progress["day_2"]["fasting"])
	assert.False(t, u.EarnedTasks.HasEarned("2026-02-19", "fajr"))
}

func TestProgressService_Reconcile_BasicNamespaceUsesDateKeys(t *testing.T) {
	svc := newProgressService(nil)

	u := testutil.NewTestUser(1, "ABC123")
	today := "2026-01-15" // outside any anchored range

	upd := &domain.ProgressUpdate{
		BasicProgress: domain.ProgressMap{
			today:        {"morningDhikr": true},
			"2026-01-14": {"eveningDhikr": true},
		},
	}

	res := svc.Reconcile(u, upd, today)

	assert.Equal(t, 20, res.XPAdded)
	assert.True(t, u.BasicProgress["2026-01-14"]["eveningDhikr"])
}

func TestProgressService_Reconcile_UnknownTaskGetsDefaultXP(t *testing.T) {
	svc := newProgressService(nil)

	u := testutil.NewTestUser(1, "ABC123")

	upd := &domain.ProgressUpdate{
		Progress: domain.ProgressMap{"day_1": {"newTaskFromNextRelease": true}},
	}

	res := svc.Reconcile(u, upd, testRamadanStart)
	assert.Equal(t, domain.DefaultTaskXP, res.XPAdded)
}

func TestProgressService_Reconcile_UnparseableKeysIgnored(t *testing.T) {
	svc := newProgressService(nil)

	u := testutil.NewTestUser(1, "ABC123")

	upd := &domain.ProgressUpdate{
		Progress:      domain.ProgressMap{"day_abc": {"fajr": true}},
		BasicProgress: domain.ProgressMap{"garbage": {"fajr": true}},
	}

	res := svc.Reconcile(u, upd, testRamadanStart)

	assert.Equal(t, 0, res.XPAdded)
	// Still stored for display.
	assert.True(t, u.Progress["day_abc"]["fajr"])
	assert.True(t, u.BasicProgress["garbage"]["fajr"])
}

func TestProgressService_Reconcile_MemorizedNames(t *testing.T) {
	svc := newProgressService(nil)

	u := testutil.NewTestUser(1, "ABC123")
	u.MemorizedNames = []int{1, 2, 3}

	incoming := []int{2, 3, 4, 5}
	upd := &domain.ProgressUpdate{MemorizedNames: &incoming}

	res := svc.Reconcile(u, upd, testRamadanStart)

	// Two new names, flat 100 each, no streak scaling.
	assert.Equal(t, 200, res.XPAdded)
	// Union: name 1 is missing from the payload but is kept.
	assert.ElementsMatch(t, []int{1, 2, 3, 4, 5}, u.MemorizedNames)

	// Resending the same set adds nothing.
	res = svc.Reconcile(u, upd, testRamadanStart)
	assert.Equal(t, 0, res.XPAdded)
}

func TestProgressService_Reconcile_Passthrough(t *testing.T) {
	svc := newProgressService(nil)

	u := testutil.NewTestUser(1, "ABC123")
	u.Name = "Old Name"
	u.QuranGoal = 30

	name := "New Name"
	khatams := 2
	upd := &domain.ProgressUpdate{
		Name:         &name,
		QuranKhatams: &khatams,
	}

	res := svc.Reconcile(u, upd, testRamadanStart)

	assert.Equal(t, 0, res.XPAdded)
	assert.Equal(t, "New Name", u.Name)
	assert.Equal(t, 2, u.QuranKhatams)
	// Nil pointer means no change offered.
	assert.Equal(t, 30, u.QuranGoal)
}

func TestProgressService_Sync_PersistsAndUpdatesStreak(t *testing.T) {
	mockRepo := new(testutil.MockUserRepository)
	svc := newProgressService(mockRepo)

	today := domain.Today(time.UTC)
	u := testutil.NewTestUser(1, "ABC123")
	u.CurrentStreak = 3
	u.LastActiveDate = domain.Yesterday(today)

	mockRepo.On("GetByID", int64(1)).Return(u, nil)
	mockRepo.On("SaveSnapshot", u, int64(1)).Return(nil)

	upd := &domain.ProgressUpdate{
		BasicProgress: domain.ProgressMap{today: {"fajr": true}},
	}

	res, err := svc.Sync(1, upd)

	assert.NoError(t, err)
	// floor(50 * 1.3) at the pre-increment multiplier.
	assert.Equal(t, 65, res.XPAdded)
	assert.Equal(t, 4, res.CurrentStreak)
	assert.Equal(t, 65, u.XP)
	assert.Equal(t, today, u.LastActiveDate)
	mockRepo.AssertExpectations(t)
}

func TestProgressService_Sync_RetriesOnVersionConflict(t *testing.T) {
	mockRepo := new(testutil.MockUserRepository)
	svc := newProgressService(mockRepo)

	today := domain.Today(time.UTC)

	// Each reload returns a fresh snapshot, as the repository would.
	mockRepo.On("GetByID", int64(1)).Return(testutil.NewTestUser(1, "ABC123"), nil).Once()
	mockRepo.On("SaveSnapshot", mock.Anything, int64(1)).Return(repository.ErrVersionConflict).Once()

	fresh := testutil.NewTestUser(1, "ABC123")
	fresh.Version = 2
	mockRepo.On("GetByID", int64(1)).Return(fresh, nil).Once()
	mockRepo.On("SaveSnapshot", mock.Anything, int64(2)).Return(nil).Once()

	upd := &domain.ProgressUpdate{
		BasicProgress: domain.ProgressMap{today: {"fajr": true}},
	}

	res, err := svc.Sync(1, upd)

	assert.NoError(t, err)
	assert.Equal(t, 50, res.XPAdded)
	mockRepo.AssertExpectations(t)
}

func TestProgressService_Sync_GivesUpAfterMaxRetries(t *testing.T) {
	mockRepo := new(testutil.MockUserRepository)
	svc := newProgressService(mockRepo)

	mockRepo.On("GetByID", int64(1)).Return(testutil.NewTestUser(1, "ABC123"), nil)
	mockRepo.On("SaveSnapshot", mock.Anything, mock.Anything).Return(repository.ErrVersionConflict)

	_, err := svc.Sync(1, &domain.ProgressUpdate{})

	assert.ErrorIs(t, err, repository.ErrVersionConflict)
	mockRepo.AssertNumberOfCalls(t, "SaveSnapshot", maxSyncRetries)
}

func TestProgressService_Sync_UserNotFound(t *testing.T) {
	mockRepo := new(testutil.MockUserRepository)
	svc := newProgressService(mockRepo)

	mockRepo.On("GetByID", int64(404)).Return(nil, repository.ErrNotFound)

	_, err := svc.Sync(404, &domain.ProgressUpdate{})

	assert.ErrorIs(t, err, repository.ErrNotFound)
}
