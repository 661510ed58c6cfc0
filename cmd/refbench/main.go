// refbench drives the pointer core through churn and raw-buffer scenarios
// and reports ownership and allocator statistics. It exits non-zero when a
// scenario ends with live references or leaked allocations.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/refptr/refptr"
	"github.com/refptr/refptr/internal/allocator"
)

var (
	flagIterations int
	flagAllocator  string
	flagBufferSize uint
	flagDebug      bool

	log zerolog.Logger
)

func main() {
	root := &cobra.Command{
		Use:   "refbench",
		Short: "Stress scenarios for the refptr ownership core",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := zerolog.InfoLevel
			if flagDebug {
				level = zerolog.DebugLevel
			}
			log = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
				Level(level).
				With().Timestamp().Logger()
		},
	}

	root.PersistentFlags().IntVarP(&flagIterations, "iterations", "n", 100000, "iterations per scenario")
	root.PersistentFlags().BoolVar(&flagDebug, "debug", false, "enable debug logging")

	churn := &cobra.Command{
		Use:   "churn",
		Short: "Shared/weak clone-reset storms",
		RunE:  runChurn,
	}

	arena := &cobra.Command{
		Use:   "arena",
		Short: "Unique and shared buffers over a raw allocator",
		RunE:  runArena,
	}
	arena.Flags().StringVar(&flagAllocator, "allocator", "system", "allocator kind: system, arena, pool")
	arena.Flags().UintVar(&flagBufferSize, "buffer-size", 512, "buffer size in bytes")

	root.AddCommand(churn, arena)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

type workload struct {
	payload [4]uint64
	alive   *int
}

func (w *workload) Destroy() {
	if w.alive != nil {
		*w.alive--
	}
}

func runChurn(cmd *cobra.Command, args []string) error {
	alive := 0
	start := time.Now()

	for i := 0; i < flagIterations; i++ {
		alive++
		s := refptr.MakeShared(workload{alive: &alive})

		c1 := s.Clone()
		c2 := c1.Clone()
		w := refptr.NewWeak(s)

		if got := s.UseCount(); got != 3 {
			return fmt.Errorf("iteration %d: use count %d, want 3", i, got)
		}

		s.Reset()
		c1.Reset()

		locked := w.Lock()
		if locked.IsNil() {
			return fmt.Errorf("iteration %d: lock failed with a live owner", i)
		}

		c2.Reset()
		locked.Reset()

		if !w.Expired() {
			return fmt.Errorf("iteration %d: weak not expired after last reset", i)
		}
		w.Reset()
	}

	elapsed := time.Since(start)
	log.Info().
		Int("iterations", flagIterations).
		Dur("elapsed", elapsed).
		Int("live_objects", alive).
		Msg("churn complete")

	if alive != 0 {
		return fmt.Errorf("%d objects still live after churn", alive)
	}

	return nil
}

func runArena(cmd *cobra.Command, args []string) error {
	var kind allocator.AllocatorKind
	switch flagAllocator {
	case "system":
		kind = allocator.SystemAllocatorKind
	case "arena":
		kind = allocator.ArenaAllocatorKind
	case "pool":
		kind = allocator.PoolAllocatorKind
	default:
		return fmt.Errorf("unknown allocator kind %q", flagAllocator)
	}

	a, err := allocator.New(kind,
		allocator.WithDebug(flagDebug),
		allocator.WithLogger(log),
		allocator.WithArenaSize(uintptr(flagIterations)*uintptr(flagBufferSize)+1024*1024),
	)
	if err != nil {
		return err
	}

	start := time.Now()

	for i := 0; i < flagIterations; i++ {
		u := refptr.NewUniqueBuffer(a, uintptr(flagBufferSize))
		if u.IsNil() {
			return fmt.Errorf("iteration %d: buffer allocation failed", i)
		}
		*u.At(0) = byte(i)
		u.Reset(nil)

		s := refptr.NewSharedBuffer(a, uintptr(flagBufferSize))
		if s.IsNil() {
			return fmt.Errorf("iteration %d: shared buffer allocation failed", i)
		}
		c := s.Clone()
		s.Reset()
		c.Reset()
	}

	elapsed := time.Since(start)
	stats := a.Stats()
	log.Info().
		Int("iterations", flagIterations).
		Dur("elapsed", elapsed).
		Uint64("allocations", stats.AllocationCount).
		Uint64("frees", stats.FreeCount).
		Uint64("bytes_in_use", uint64(stats.BytesInUse)).
		Msg("arena scenario complete")

	// the arena cannot free; only the freeing allocators are leak-checked
	if kind != allocator.ArenaAllocatorKind && a.ActiveAllocations() != 0 {
		return fmt.Errorf("%d allocations leaked", a.ActiveAllocations())
	}

	return nil
}
