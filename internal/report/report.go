// Package report prints the day as it happens and the summary at its end.
package report

import (
	"fmt"
	"io"
	"sync"
	"time"

	"pizzeria/internal/apperr"
	"pizzeria/internal/stats"
)

// Journal writes one line per order event. It is safe for concurrent use and
// never interleaves lines.
type Journal struct {
	mu   sync.Mutex
	w    io.Writer
	unit time.Duration
}

// NewJournal returns a Journal writing to w. Elapsed times are printed in
// simulated seconds of length unit.
func NewJournal(w io.Writer, unit time.Duration) *Journal {
	return &Journal{w: w, unit: unit}
}

// Placed reports a successful payment.
func (j *Journal) Placed(orderID int) {
	j.printf("The order with id %d was placed successfully.\n", orderID)
}

// Failed reports a declined payment.
func (j *Journal) Failed(orderID int) {
	j.printf("The order with id %d failed.\n", orderID)
}

// Prepared reports an order leaving the kitchen, elapsed after the call.
func (j *Journal) Prepared(orderID int, elapsed time.Duration) {
	m, s := minSec(Seconds(elapsed, j.unit))
	j.printf("The order with id %d was prepared in %d min %d sec\n", orderID, m, s)
}

// Delivered reports pizzas reaching the door, elapsed after the call.
func (j *Journal) Delivered(orderID int, elapsed time.Duration) {
	m, s := minSec(Seconds(elapsed, j.unit))
	j.printf("The order with id %d was delivered in %d min %d sec\n", orderID, m, s)
}

func (j *Journal) printf(format string, args ...any) {
	j.mu.Lock()
	defer j.mu.Unlock()
	fmt.Fprintf(j.w, format, args...)
}

// WriteBanner announces the expected number of customers.
func WriteBanner(w io.Writer, customers int) error {
	_, err := fmt.Fprintf(w, "Expecting %d customers\n"+
		"********************************************\n\n\n\n\n", customers)
	return err
}

// WriteSummary prints the day's performance. It returns apperr.ErrNoCalls
// if no call was ever recorded.
func WriteSummary(w io.Writer, s stats.DayStats, unit time.Duration) error {
	p := &printer{w: w}

	p.printf("\n\n\nPizzaria's performance results.\n")
	p.printf("Total revenue               : %d\n"+
		"Number of successful orders : %d\n"+
		"Number of failed orders     : %d\n",
		s.Revenue, s.SuccessfulOrders, s.FailedOrders())

	if s.TotalCalls == 0 {
		p.printf("Something must have gone terribly wrong!!\n")
		if p.err != nil {
			return p.err
		}
		return apperr.ErrNoCalls
	}

	p.printf("Mean call waiting time      : %d sec\n"+
		"Max  call waiting time      : %d sec\n",
		Seconds(s.MeanCallWait(), unit), Seconds(s.CallWaitMax, unit))

	if s.SuccessfulOrders == 0 {
		p.printf("0 successful orders\n")
		return p.err
	}

	meanM, meanS := minSec(Seconds(s.MeanDoorTime(), unit))
	maxM, maxS := minSec(Seconds(s.DoorTimeMax, unit))
	p.printf("Mean order time to delivery : %d min %d sec\n"+
		"Max  order time to delivery : %d min %d sec\n",
		meanM, meanS, maxM, maxS)

	meanM, meanS = minSec(Seconds(s.MeanColdTime(), unit))
	maxM, maxS = minSec(Seconds(s.ColdTimeMax, unit))
	p.printf("Mean time that pizzas were getting cold: %d min %d sec\n"+
		"Max  time that pizzas were getting cold: %d min %d sec\n",
		meanM, meanS, maxM, maxS)

	// Extra lines go after the fixed block so its layout stays unchanged.
	p95M, p95S := minSec(Seconds(s.DoorTimeQuantile(0.95), unit))
	p.printf("p95  order time to delivery : %d min %d sec\n", p95M, p95S)

	return p.err
}

// Seconds converts d to whole simulated seconds. A non-positive unit is
// treated as one second.
func Seconds(d, unit time.Duration) int64 {
	if unit <= 0 {
		unit = time.Second
	}
	return int64(d / unit)
}

func minSec(secs int64) (int64, int64) {
	return secs / 60, secs % 60
}

// printer keeps the first write error.
type printer struct {
	w   io.Writer
	err error
}

func (p *printer) printf(format string, args ...any) {
	if p.err != nil {
		return
	}
	_, p.err = fmt.Fprintf(p.w, format, args...)
}
