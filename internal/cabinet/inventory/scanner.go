// Package inventory wraps the cabinet's internal RFID reader with the two
// scan shapes the controller needs: a point-in-time sweep and a blocking
// wait for a tag that wasn't there before.
package inventory

import (
	"context"
	"time"

	"github.com/smartcabinet/controller/internal/cabinet/hardware"
	"github.com/smartcabinet/controller/internal/cabinet/types"
)

const defaultSweepInterval = 500 * time.Millisecond

type Scanner struct {
	reader        hardware.InventoryReader
	sweepInterval time.Duration
}

func NewScanner(reader hardware.InventoryReader) *Scanner {
	return &Scanner{reader: reader, sweepInterval: defaultSweepInterval}
}

// SetSweepInterval shortens the re-sweep pause; tests use this.
func (s *Scanner) SetSweepInterval(d time.Duration) {
	if d > 0 {
		s.sweepInterval = d
	}
}

// Scan reports every tag currently inside the cabinet.
func (s *Scanner) Scan(ctx context.Context) (types.TagSet, error) {
	return s.reader.Scan(ctx)
}

// ScanUntilNew sweeps repeatedly until a tag appears that is not in known,
// and returns it. Used by shoebox enrollment: the admin places the new item
// in the cabinet and the first unfamiliar tag is the one being enrolled.
func (s *Scanner) ScanUntilNew(ctx context.Context, known types.TagSet) (string, error) {
	for {
		tags, err := s.reader.Scan(ctx)
		if err != nil {
			return "", err
		}
		for tag := range tags {
			if !known.Has(tag) {
				return tag, nil
			}
		}

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(s.sweepInterval):
		}
	}
}
