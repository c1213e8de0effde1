package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/yeremiapane/table-order/hub"
	"github.com/yeremiapane/table-order/models"
	"github.com/yeremiapane/table-order/utils"
)

var ErrWatcherStopped = errors.New("payment watcher stopped")

// PaymentMetrics menyimpan metrik verifikasi pembayaran
type PaymentMetrics struct {
	TotalVerifications int64 `json:"totalVerifications"`
	SuccessfulPayments int64 `json:"successfulPayments"`
	FailedPayments     int64 `json:"failedPayments"`
	TimedOutPayments   int64 `json:"timedOutPayments"`
	PendingPayments    int64 `json:"pendingPayments"`
	AvgResponseTime    int64 `json:"avgResponseTime"` // dalam milisecond
}

// watchKey scopes an order code to the table that asked for it
type watchKey struct {
	scope models.Scope
	code  string
}

type watch struct {
	done   chan struct{}
	result models.VerificationResult
}

// PaymentWatcher runs verifications in the background, one per table and order code
type PaymentWatcher struct {
	verifier *PaymentVerifier
	events   hub.Publisher
	now      func() time.Time

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mutex    sync.Mutex
	watches  map[watchKey]*watch
	metrics  PaymentMetrics
	finished int64
	elapsed  time.Duration
}

func NewPaymentWatcher(verifier *PaymentVerifier, events hub.Publisher) *PaymentWatcher {
	if events == nil {
		events = hub.Nop{}
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &PaymentWatcher{
		verifier: verifier,
		events:   events,
		now:      time.Now,
		ctx:      ctx,
		cancel:   cancel,
		watches:  make(map[watchKey]*watch),
	}
}

// Watch starts verifying the order unless a run for it is in progress or
// already succeeded. It returns the latest result of that order.
func (pw *PaymentWatcher) Watch(ctx context.Context, scope models.Scope, orderCode string) (models.VerificationResult, error) {
	code, err := pw.verifier.ResolveOrder(ctx, scope, orderCode)
	if err != nil {
		return models.VerificationResult{}, err
	}

	pw.mutex.Lock()
	if pw.ctx.Err() != nil {
		pw.mutex.Unlock()
		return models.VerificationResult{}, ErrWatcherStopped
	}
	key := watchKey{scope: scope, code: code}
	if w, ok := pw.watches[key]; ok {
		outcome := w.result.Outcome
		if outcome == models.VerificationRunning || outcome == models.VerificationSucceeded {
			result := w.result
			pw.mutex.Unlock()
			return result, nil
		}
	}

	w := &watch{
		done: make(chan struct{}),
		result: models.VerificationResult{
			OrderCode: code,
			Scope:     scope,
			Outcome:   models.VerificationRunning,
			Status:    models.PaymentStatusPending,
			StartedAt: pw.now(),
		},
	}
	pw.watches[key] = w
	pw.metrics.TotalVerifications++
	pw.metrics.PendingPayments++
	result := w.result
	pw.wg.Add(1)
	pw.mutex.Unlock()

	utils.InfoLogger.Infof("Watching payment of order %s for %s", code, scope)
	pw.events.Publish(scope.String(), hub.EventPaymentPending, result)

	go pw.run(w, scope, code)
	return result, nil
}

func (pw *PaymentWatcher) run(w *watch, scope models.Scope, code string) {
	defer pw.wg.Done()
	defer close(w.done)

	status, completion, err := pw.verifier.await(pw.ctx, scope, code)
	finishedAt := pw.now()

	pw.mutex.Lock()
	w.result.FinishedAt = &finishedAt
	if status != "" {
		w.result.Status = status
	}
	event := ""
	switch {
	case err == nil:
		w.result.Outcome = models.VerificationSucceeded
		pw.metrics.SuccessfulPayments++
		event = hub.EventPaymentSuccess
	case errors.Is(err, ErrPaymentFailed):
		w.result.Outcome = models.VerificationFailed
		w.result.Message = err.Error()
		pw.metrics.FailedPayments++
		event = hub.EventPaymentFailed
	case errors.Is(err, ErrVerificationTimeout):
		w.result.Outcome = models.VerificationTimedOut
		w.result.Message = err.Error()
		pw.metrics.TimedOutPayments++
		event = hub.EventPaymentTimeout
	default:
		w.result.Outcome = models.VerificationErrored
		w.result.Message = err.Error()
		pw.metrics.FailedPayments++
		if !errors.Is(err, context.Canceled) {
			event = hub.EventPaymentFailed
		}
	}
	pw.metrics.PendingPayments--
	pw.finished++
	pw.elapsed += finishedAt.Sub(w.result.StartedAt)
	pw.metrics.AvgResponseTime = pw.elapsed.Milliseconds() / pw.finished
	result := w.result
	pw.mutex.Unlock()

	if event == "" {
		utils.InfoLogger.Infof("Stopped watching payment of order %s", code)
		return
	}
	if completion != nil {
		pw.events.Publish(scope.String(), event, completion)
	} else {
		pw.events.Publish(scope.String(), event, result)
	}
}

// Result returns the latest known result of an order of the table
func (pw *PaymentWatcher) Result(scope models.Scope, orderCode string) (models.VerificationResult, bool) {
	pw.mutex.Lock()
	defer pw.mutex.Unlock()
	w, ok := pw.watches[watchKey{scope: scope, code: orderCode}]
	if !ok {
		return models.VerificationResult{}, false
	}
	return w.result, true
}

// Wait blocks until the current run of orderCode finishes or ctx is done
func (pw *PaymentWatcher) Wait(ctx context.Context, scope models.Scope, orderCode string) (models.VerificationResult, error) {
	pw.mutex.Lock()
	w, ok := pw.watches[watchKey{scope: scope, code: orderCode}]
	pw.mutex.Unlock()
	if !ok {
		return models.VerificationResult{}, ErrMissingOrderContext
	}

	select {
	case <-w.done:
	case <-ctx.Done():
		return models.VerificationResult{}, ctx.Err()
	}
	result, _ := pw.Result(scope, orderCode)
	return result, nil
}

// StopAll cancels every running verification and waits for them to return
func (pw *PaymentWatcher) StopAll() {
	pw.mutex.Lock()
	pw.cancel()
	pw.mutex.Unlock()
	pw.wg.Wait()
	utils.InfoLogger.Info("Payment watcher stopped")
}

// GetMetrics mengembalikan metrik pembayaran saat ini
func (pw *PaymentWatcher) GetMetrics() PaymentMetrics {
	pw.mutex.Lock()
	defer pw.mutex.Unlock()
	return pw.metrics
}
