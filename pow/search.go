package pow

import (
	"context"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"math"
	"sync"

	"github.com/holiman/uint256"
	logging "github.com/ipfs/go-log/v2"
	"golang.org/x/sync/errgroup"

	keccak "github.com/Giulio2002/meer_keccak"
)

var log = logging.Logger("meer/pow")

// ErrNonceSpaceExhausted is returned when no nonce in the searched range
// meets the target.
var ErrNonceSpaceExhausted = errors.New("pow: nonce range exhausted")

// errFound stops the remaining workers once a share is found.
var errFound = errors.New("share found")

// cancelCheckInterval is how many nonces a worker hashes between context checks.
const cancelCheckInterval = 1 << 10

// SearchConfig bounds a nonce search.
type SearchConfig struct {
	Start   uint64 // first nonce
	Count   uint64 // number of nonces to try
	Workers int    // goroutines, defaults to 1
}

// Search looks for a nonce in [Start, Start+Count) whose digest meets the work
// target. The range is split into contiguous slices, one per worker. Every
// worker resumes from the header midstate, the way hashing hardware does, so
// only the tail and the two later stages are hashed per nonce.
//
// The first share found is returned. Search returns ErrNonceSpaceExhausted if
// the whole range misses, or the context error if ctx is done first.
func Search(ctx context.Context, w *Work, cfg SearchConfig) (Share, error) {
	if cfg.Count == 0 {
		return Share{}, ErrNonceSpaceExhausted
	}
	if rest := math.MaxUint64 - cfg.Start; cfg.Count-1 > rest {
		cfg.Count = rest + 1
	}
	workers := uint64(max(cfg.Workers, 1))
	workers = min(workers, cfg.Count)

	mid, err := w.Midstate()
	if err != nil {
		return Share{}, err
	}
	target := w.TargetInt()
	log.Debugw("starting nonce search", "start", cfg.Start, "count", cfg.Count, "workers", workers,
		"target", hex.EncodeToString(w.Target[:]))

	var (
		once  sync.Once
		found Share
	)
	g, gctx := errgroup.WithContext(ctx)
	per := cfg.Count / workers
	for i := uint64(0); i < workers; i++ {
		start := cfg.Start + i*per
		n := per
		if i == workers-1 {
			n = cfg.Count - i*per
		}
		g.Go(func() error {
			s, ok, err := scan(gctx, w, mid, target, start, n)
			if err != nil {
				return err
			}
			if !ok {
				log.Debugw("nonce slice exhausted", "start", start, "count", n)
				return nil
			}
			once.Do(func() { found = s })
			return errFound
		})
	}

	switch err := g.Wait(); {
	case errors.Is(err, errFound):
		log.Infow("share found", "nonce", found.Nonce, "digest", hex.EncodeToString(found.Digest[:]))
		return found, nil
	case err != nil:
		return Share{}, err
	}
	return Share{}, ErrNonceSpaceExhausted
}

// scan hashes n nonces from start against target using a private copy of the
// header tail.
func scan(ctx context.Context, w *Work, mid keccak.Midstate, target *uint256.Int, start, n uint64) (Share, bool, error) {
	tail := w.Tail()
	for k := uint64(0); k < n; k++ {
		if k%cancelCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return Share{}, false, err
			}
		}
		nonce := start + k
		binary.LittleEndian.PutUint64(tail[nonceInTail:], nonce)
		digest, err := keccak.MeerHashFromMidstate(mid, tail[:])
		if err != nil {
			return Share{}, false, err
		}
		if MeetsTarget(digest, target) {
			s := Share{Nonce: nonce, Digest: digest, Header: w.Header}
			binary.LittleEndian.PutUint64(s.Header[NonceOffset:], nonce)
			return s, true, nil
		}
	}
	return Share{}, false, nil
}
