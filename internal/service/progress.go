package service

import (
	"errors"
	"fmt"
	"time"

	"imantap/internal/domain"
	"imantap/internal/repository"

	"go.uber.org/zap"
)

// maxSyncRetries bounds the reload-and-retry loop on version conflicts.
const maxSyncRetries = 3

// ProgressService reconciles incoming mini-app progress payloads against
// the stored snapshot: it scores only today's newly completed tasks,
// keeps the daily completion ledger, and drives the streak counters.
type ProgressService struct {
	users            repository.UserRepository
	badges           *BadgeService
	ramadanStart     string
	preparationStart string
	loc              *time.Location
	logger           *zap.Logger
}

// NewProgressService creates a new progress service. Anchor dates are
// calendar-date strings; loc is the fixed reference timezone used for
// every "today" computation.
func NewProgressService(
	users repository.UserRepository,
	badges *BadgeService,
	ramadanStart, preparationStart string,
	loc *time.Location,
	logger *zap.Logger,
) *ProgressService {
	return &ProgressService{
		users:            users,
		badges:           badges,
		ramadanStart:     ramadanStart,
		preparationStart: preparationStart,
		loc:              loc,
		logger:           logger,
	}
}

// SyncResult reports the outcome of one sync call for immediate UI
// feedback in the mini-app.
type SyncResult struct {
	XPAdded       int
	Multiplier    float64
	CurrentStreak int
	NewTasks      []string
	User          *domain.User
}

// Sync loads the snapshot, reconciles the payload and persists the merged
// fields. The write is a compare-and-swap on the snapshot version; a
// concurrent sync from the same user triggers a reload and re-reconcile,
// which is always correct because reconciliation is a pure function of
// its inputs.
func (s *ProgressService) Sync(userID int64, upd *domain.ProgressUpdate) (*SyncResult, error) {
	today := domain.Today(s.loc)

	for attempt := 0; attempt < maxSyncRetries; attempt++ {
		u, err := s.users.GetByID(userID)
		if err != nil {
			return nil, err
		}

		res := s.Reconcile(u, upd, today)

		u.CurrentStreak, u.LongestStreak, u.LastActiveDate = UpdateStreak(
			u.CurrentStreak, u.LongestStreak, u.LastActiveDate, today, res.XPAdded > 0,
		)
		u.XP += res.XPAdded

		if err := s.users.SaveSnapshot(u, u.Version); err != nil {
			if errors.Is(err, repository.ErrVersionConflict) {
				s.logger.Warn("sync lost snapshot race, retrying",
					zap.Int64("user_id", userID),
					zap.Int("attempt", attempt+1),
				)
				continue
			}
			return nil, err
		}

		if res.XPAdded > 0 && s.badges != nil {
			s.badges.Refresh(userID)
		}

		res.CurrentStreak = u.CurrentStreak
		res.User = u
		return res, nil
	}

	return nil, fmt.Errorf("sync for user %d: %w", userID, repository.ErrVersionConflict)
}

// Profile returns the read-only mini-app projection.
func (s *ProgressService) Profile(userID int64) (domain.FullProfile, error) {
	u, err := s.users.GetByID(userID)
	if err != nil {
		return domain.FullProfile{}, err
	}
	return u.FullProfile(), nil
}

// Reconcile applies the payload to the snapshot in place and returns the
// XP delta. Only entries whose derived calendar date equals today are
// scored; everything else is persisted verbatim for display. Calling it
// twice with the same payload on the same day yields a zero delta the
// second time.
func (s *ProgressService) Reconcile(u *domain.User, upd *domain.ProgressUpdate, today string) *SyncResult {
	// The multiplier is fixed before this sync's potential streak
	// increment, so the first task of a new streak day is scored at the
	// prior day's multiplier.
	res := &SyncResult{Multiplier: domain.StreakMultiplier(u.CurrentStreak)}

	if upd.Progress != nil {
		if u.Progress == nil {
			u.Progress = domain.ProgressMap{}
		}
		s.mergeNamespace(u, u.Progress, upd.Progress, s.dayKeyDate(s.ramadanStart), today, res)
	}
	if upd.PreparationProgress != nil {
		if u.PreparationProgress == nil {
			u.PreparationProgress = domain.ProgressMap{}
		}
		s.mergeNamespace(u, u.PreparationProgress, upd.PreparationProgress, s.dayKeyDate(s.preparationStart), today, res)
	}
	if upd.BasicProgress != nil {
		if u.BasicProgress == nil {
			u.BasicProgress = domain.ProgressMap{}
		}
		s.mergeNamespace(u, u.BasicProgress, upd.BasicProgress, basicKeyDate, today, res)
	}

	if upd.MemorizedNames != nil {
		s.mergeMemorizedNames(u, *upd.MemorizedNames, res)
	}

	applyPassthrough(u, upd)
	return res
}

// mergeNamespace overwrites the stored flags for every key in the payload
// and scores the single key whose derived date is today.
func (s *ProgressService) mergeNamespace(
	u *domain.User,
	stored, incoming domain.ProgressMap,
	dateOf func(key string) (string, bool),
	today string,
	res *SyncResult,
) {
	for key, flags := range incoming {
		stored[key] = flags

		date, ok := dateOf(key)
		if !ok {
			s.logger.Warn("unscorable progress key",
				zap.Int64("user_id", u.UserID),
				zap.String("key", key),
			)
			continue
		}
		if date != today {
			continue
		}

		if u.EarnedTasks == nil {
			u.EarnedTasks = domain.Ledger{}
		}
		for taskID, done := range flags {
			// Clearing a flag never revokes XP or touches the ledger.
			if !done {
				continue
			}
			if u.EarnedTasks.HasEarned(today, taskID) {
				continue
			}
			base, known := domain.BaseXP(taskID)
			if !known {
				s.logger.Warn("unknown task identifier, using default XP",
					zap.Int64("user_id", u.UserID),
					zap.String("task", taskID),
				)
			}
			res.XPAdded += domain.ScaleXP(base, res.Multiplier)
			u.EarnedTasks.MarkEarned(today, taskID)
			res.NewTasks = append(res.NewTasks, taskID)
		}
	}
}

// mergeMemorizedNames grows the stored set by the incoming additions,
// each worth a flat award. The set never shrinks: identifiers missing
// from the payload are kept and logged, guarding against client-side
// data loss.
func (s *ProgressService) mergeMemorizedNames(u *domain.User, incoming []int, res *SyncResult) {
	known := make(map[int]bool, len(u.MemorizedNames))
	for _, n := range u.MemorizedNames {
		known[n] = true
	}

	seen := make(map[int]bool, len(incoming))
	for _, n := range incoming {
		seen[n] = true
		if known[n] {
			continue
		}
		u.MemorizedNames = append(u.MemorizedNames, n)
		known[n] = true
		res.XPAdded += domain.MemorizedNameXP
	}

	for _, n := range u.MemorizedNames {
		if !seen[n] {
			s.logger.Warn("memorized name missing from payload, keeping it",
				zap.Int64("user_id", u.UserID),
				zap.Int("name", n),
			)
		}
	}
}

// dayKeyDate maps "day_N" keys to calendar dates relative to an anchor.
func (s *ProgressService) dayKeyDate(anchor string) func(key string) (string, bool) {
	return func(key string) (string, bool) {
		n, ok := domain.ParseDayKey(key)
		if !ok {
			return "", false
		}
		date, err := domain.DayDate(anchor, n)
		if err != nil {
			return "", false
		}
		return date, true
	}
}

// basicKeyDate treats the key itself as the calendar date.
func basicKeyDate(key string) (string, bool) {
	if _, err := domain.ParseDate(key); err != nil {
		return "", false
	}
	return key, true
}

func applyPassthrough(u *domain.User, upd *domain.ProgressUpdate) {
	if upd.Name != nil {
		u.Name = *upd.Name
	}
	if upd.Username != nil {
		u.Username = *upd.Username
	}
	if upd.PhotoURL != nil {
		u.PhotoURL = *upd.PhotoURL
	}
	if upd.CompletedJuzs != nil {
		u.CompletedJuzs = *upd.CompletedJuzs
	}
	if upd.QuranKhatams != nil {
		u.QuranKhatams = *upd.QuranKhatams
	}
	if upd.CompletedTasks != nil {
		u.CompletedTasks = *upd.CompletedTasks
	}
	if upd.CustomTasks != nil {
		u.CustomTasks = upd.CustomTasks
	}
	if upd.QuranGoal != nil {
		u.QuranGoal = *upd.QuranGoal
	}
	if upd.DailyQuranGoal != nil {
		u.DailyQuranGoal = *upd.DailyQuranGoal
	}
	if upd.DailyCharityGoal != nil {
		u.DailyCharityGoal = *upd.DailyCharityGoal
	}
	if upd.Language != nil {
		u.Language = *upd.Language
	}
}
