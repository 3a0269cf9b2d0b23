package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"relief-disbursement-gateway/internal/core/domain"
	"relief-disbursement-gateway/internal/core/ports"

	"github.com/rs/zerolog"
)

// FraudThresholds is the immutable analyzer configuration. It is
// captured at construction; nothing mutates it afterwards, so analyzer
// behavior is deterministic for a given history.
type FraudThresholds struct {
	MaxTransactionAmount int64         // single-transaction ceiling, minor units
	DailySpendingCap     int64         // sender-side global daily cap
	VendorDailyCap       int64         // recipient-side daily receipt cap
	DuplicateWindow      time.Duration // identical (from, to, amount) lookback
	RapidWindow          time.Duration
	RapidMaxCount        int
	RapidMinGap          time.Duration
	RapidMaxCloseGaps    int
	ConcentrationWindow  time.Duration
	ConcentrationMinTx   int
	ConcentrationRatio   float64
	TimingWindow         time.Duration
	TimingMinTx          int
	TimingMaxHours       int
	TimingDominantRatio  float64
}

// DefaultFraudThresholds returns the production defaults.
func DefaultFraudThresholds() FraudThresholds {
	return FraudThresholds{
		MaxTransactionAmount: 100_000,
		DailySpendingCap:     200_000,
		VendorDailyCap:       1_000_000,
		DuplicateWindow:      5 * time.Minute,
		RapidWindow:          time.Hour,
		RapidMaxCount:        10,
		RapidMinGap:          time.Minute,
		RapidMaxCloseGaps:    2,
		ConcentrationWindow:  30 * 24 * time.Hour,
		ConcentrationMinTx:   5,
		ConcentrationRatio:   0.8,
		TimingWindow:         7 * 24 * time.Hour,
		TimingMinTx:          3,
		TimingMaxHours:       2,
		TimingDominantRatio:  0.8,
	}
}

// FraudServiceImpl implements ports.FraudAnalyzer. Each detector is an
// independent pure function over transaction history; all of them
// contribute to the result and none short-circuits the others.
type FraudServiceImpl struct {
	txStore    ports.TransactionStore
	thresholds FraudThresholds
	loc        *time.Location
	log        zerolog.Logger
}

// NewFraudService creates a new FraudServiceImpl.
func NewFraudService(txStore ports.TransactionStore, thresholds FraudThresholds, loc *time.Location, log zerolog.Logger) *FraudServiceImpl {
	if loc == nil {
		loc = time.UTC
	}
	return &FraudServiceImpl{
		txStore:    txStore,
		thresholds: thresholds,
		loc:        loc,
		log:        log,
	}
}

type detectorFunc func(ctx context.Context, c ports.FraudCandidate) (*domain.FraudFlag, bool, error)

// Analyze runs every detector over the candidate. Detectors have no
// ordering dependency and run as parallel tasks joined before the
// result is assembled. A detector whose history query fails marks the
// analysis degraded; the caller must fail closed on a degraded result.
func (s *FraudServiceImpl) Analyze(ctx context.Context, c ports.FraudCandidate) *domain.FraudAnalysis {
	detectors := []detectorFunc{
		s.detectExcessiveAmount,
		s.detectDuplicate,
		s.detectRapidSuccession,
		s.detectExcessiveDailySpending,
		s.detectVendorConcentration,
		s.detectVendorDailyCap,
		s.detectSuspiciousTiming,
	}

	result := &domain.FraudAnalysis{}
	var mu sync.Mutex
	var wg sync.WaitGroup

	for _, detect := range detectors {
		wg.Add(1)
		go func(detect detectorFunc) {
			defer wg.Done()
			flag, isWarning, err := detect(ctx, c)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				result.Degraded = true
				s.log.Error().Err(err).
					Str("from", c.From).
					Str("to", c.To).
					Msg("fraud detector query failed, analysis degraded")
				return
			}
			if flag == nil {
				return
			}
			if isWarning {
				result.Warnings = append(result.Warnings, *flag)
			} else {
				result.Flags = append(result.Flags, *flag)
			}
		}(detect)
	}
	wg.Wait()

	// Detector completion order is nondeterministic; keep output stable.
	sort.Slice(result.Flags, func(i, j int) bool { return result.Flags[i].Pattern < result.Flags[j].Pattern })
	sort.Slice(result.Warnings, func(i, j int) bool { return result.Warnings[i].Pattern < result.Warnings[j].Pattern })

	return result
}

// detectExcessiveAmount flags any single transaction above the global
// maximum.
func (s *FraudServiceImpl) detectExcessiveAmount(_ context.Context, c ports.FraudCandidate) (*domain.FraudFlag, bool, error) {
	if c.Amount <= s.thresholds.MaxTransactionAmount {
		return nil, false, nil
	}
	return &domain.FraudFlag{
		Pattern:     domain.PatternExcessiveAmount,
		Severity:    domain.SeverityHigh,
		Description: "Transaction amount exceeds the maximum single-transaction threshold",
		Details: map[string]any{
			"amount":    c.Amount,
			"threshold": s.thresholds.MaxTransactionAmount,
		},
	}, false, nil
}

// detectDuplicate flags an identical (from, to, amount) transaction
// within the trailing duplicate window.
func (s *FraudServiceImpl) detectDuplicate(ctx context.Context, c ports.FraudCandidate) (*domain.FraudFlag, bool, error) {
	since := c.Now.Add(-s.thresholds.DuplicateWindow)
	count, err := s.txStore.CountMatching(ctx, c.From, c.To, c.Amount, since)
	if err != nil {
		return nil, false, fmt.Errorf("duplicate lookup: %w", err)
	}
	if count == 0 {
		return nil, false, nil
	}
	return &domain.FraudFlag{
		Pattern:     domain.PatternDuplicateTransaction,
		Severity:    domain.SeverityHigh,
		Description: fmt.Sprintf("Identical transaction submitted within the last %s", s.thresholds.DuplicateWindow),
		Details: map[string]any{
			"matching_count": count,
			"window_minutes": s.thresholds.DuplicateWindow.Minutes(),
			"amount":         c.Amount,
		},
	}, false, nil
}

// detectRapidSuccession flags a sender issuing transactions faster than
// the rapid thresholds allow. The candidate itself counts toward the
// window total, so the 11th submission inside an hour trips a
// threshold of 10.
func (s *FraudServiceImpl) detectRapidSuccession(ctx context.Context, c ports.FraudCandidate) (*domain.FraudFlag, bool, error) {
	since := c.Now.Add(-s.thresholds.RapidWindow)
	history, err := s.txStore.ListBySender(ctx, c.From, since)
	if err != nil {
		return nil, false, fmt.Errorf("rapid succession lookup: %w", err)
	}

	total := len(history) + 1 // include the candidate

	closeGaps := 0
	for i := 1; i < len(history); i++ {
		if history[i].CreatedAt.Sub(history[i-1].CreatedAt) < s.thresholds.RapidMinGap {
			closeGaps++
		}
	}
	if len(history) > 0 && c.Now.Sub(history[len(history)-1].CreatedAt) < s.thresholds.RapidMinGap {
		closeGaps++
	}

	isRapid := total > s.thresholds.RapidMaxCount || closeGaps > s.thresholds.RapidMaxCloseGaps
	if !isRapid {
		return nil, false, nil
	}
	return &domain.FraudFlag{
		Pattern:     domain.PatternRapidSuccession,
		Severity:    domain.SeverityMedium,
		Description: "Sender is issuing transactions in rapid succession",
		Details: map[string]any{
			"window_count":   total,
			"max_count":      s.thresholds.RapidMaxCount,
			"close_gaps":     closeGaps,
			"max_close_gaps": s.thresholds.RapidMaxCloseGaps,
			"window_hours":   s.thresholds.RapidWindow.Hours(),
		},
	}, false, nil
}

// detectExcessiveDailySpending flags the sender's total outgoing spend
// today (pending and confirmed both count) exceeding the global cap.
func (s *FraudServiceImpl) detectExcessiveDailySpending(ctx context.Context, c ports.FraudCandidate) (*domain.FraudFlag, bool, error) {
	spentToday, err := s.txStore.SumOutgoing(ctx, ports.SpendWindow{
		Party:    c.From,
		Types:    []domain.TransactionType{domain.TransactionTypeSpending, domain.TransactionTypeVendorPayment},
		Statuses: []domain.TransactionStatus{domain.TransactionStatusPending, domain.TransactionStatusConfirmed},
		Since:    startOfDay(c.Now, s.loc),
	})
	if err != nil {
		return nil, false, fmt.Errorf("daily spend lookup: %w", err)
	}
	if spentToday+c.Amount <= s.thresholds.DailySpendingCap {
		return nil, false, nil
	}
	return &domain.FraudFlag{
		Pattern:     domain.PatternExcessiveDailySpending,
		Severity:    domain.SeverityHigh,
		Description: "Sender's spending today exceeds the global daily cap",
		Details: map[string]any{
			"spent_today": spentToday,
			"requested":   c.Amount,
			"daily_cap":   s.thresholds.DailySpendingCap,
		},
	}, false, nil
}

// detectVendorConcentration warns when a sender's recent activity is
// concentrated on a single recipient. Warning only: legitimate in
// remote areas with one vendor, but worth surfacing for review.
func (s *FraudServiceImpl) detectVendorConcentration(ctx context.Context, c ports.FraudCandidate) (*domain.FraudFlag, bool, error) {
	since := c.Now.Add(-s.thresholds.ConcentrationWindow)
	shares, err := s.txStore.RecipientShares(ctx, c.From, since)
	if err != nil {
		return nil, false, fmt.Errorf("concentration lookup: %w", err)
	}

	var total int64
	for _, sh := range shares {
		total += sh.Count
	}
	if total < int64(s.thresholds.ConcentrationMinTx) || len(shares) == 0 {
		return nil, false, nil
	}
	top := shares[0]
	ratio := float64(top.Count) / float64(total)
	if ratio <= s.thresholds.ConcentrationRatio {
		return nil, false, nil
	}
	return &domain.FraudFlag{
		Pattern:     domain.PatternVendorConcentration,
		Severity:    domain.SeverityLow,
		Description: "Most of the sender's recent transactions go to a single recipient",
		Details: map[string]any{
			"recipient":       top.Recipient,
			"recipient_count": top.Count,
			"total_count":     total,
			"ratio":           ratio,
			"threshold":       s.thresholds.ConcentrationRatio,
		},
	}, true, nil
}

// detectVendorDailyCap flags the recipient's receipts today (pending
// and confirmed) exceeding the vendor daily cap.
func (s *FraudServiceImpl) detectVendorDailyCap(ctx context.Context, c ports.FraudCandidate) (*domain.FraudFlag, bool, error) {
	receivedToday, err := s.txStore.SumIncoming(ctx, ports.SpendWindow{
		Party:    c.To,
		Types:    []domain.TransactionType{domain.TransactionTypeSpending, domain.TransactionTypeVendorPayment},
		Statuses: []domain.TransactionStatus{domain.TransactionStatusPending, domain.TransactionStatusConfirmed},
		Since:    startOfDay(c.Now, s.loc),
	})
	if err != nil {
		return nil, false, fmt.Errorf("vendor receipts lookup: %w", err)
	}
	if receivedToday+c.Amount <= s.thresholds.VendorDailyCap {
		return nil, false, nil
	}
	return &domain.FraudFlag{
		Pattern:     domain.PatternVendorDailyCap,
		Severity:    domain.SeverityMedium,
		Description: "Recipient's receipts today exceed the vendor daily cap",
		Details: map[string]any{
			"received_today": receivedToday,
			"requested":      c.Amount,
			"vendor_cap":     s.thresholds.VendorDailyCap,
		},
	}, false, nil
}

// detectSuspiciousTiming warns when a sender's recent transactions
// cluster into very few hours of the day with one hour dominating,
// which suggests scripted activity.
func (s *FraudServiceImpl) detectSuspiciousTiming(ctx context.Context, c ports.FraudCandidate) (*domain.FraudFlag, bool, error) {
	since := c.Now.Add(-s.thresholds.TimingWindow)
	history, err := s.txStore.ListBySender(ctx, c.From, since)
	if err != nil {
		return nil, false, fmt.Errorf("timing lookup: %w", err)
	}
	if len(history) < s.thresholds.TimingMinTx {
		return nil, false, nil
	}

	byHour := make(map[int]int)
	for _, tx := range history {
		byHour[tx.CreatedAt.In(s.loc).Hour()]++
	}
	if len(byHour) > s.thresholds.TimingMaxHours {
		return nil, false, nil
	}

	dominant := 0
	dominantHour := 0
	for hour, n := range byHour {
		if n > dominant {
			dominant = n
			dominantHour = hour
		}
	}
	ratio := float64(dominant) / float64(len(history))
	if ratio <= s.thresholds.TimingDominantRatio {
		return nil, false, nil
	}
	return &domain.FraudFlag{
		Pattern:     domain.PatternSuspiciousTiming,
		Severity:    domain.SeverityLow,
		Description: "Sender's recent transactions are confined to a narrow time-of-day pattern",
		Details: map[string]any{
			"transaction_count": len(history),
			"distinct_hours":    len(byHour),
			"dominant_hour":     dominantHour,
			"dominant_ratio":    ratio,
			"threshold":         s.thresholds.TimingDominantRatio,
		},
	}, true, nil
}
