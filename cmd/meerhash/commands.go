package main

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"runtime"
	"strconv"
	"strings"

	"github.com/urfave/cli/v2"

	keccak "github.com/Giulio2002/meer_keccak"
	"github.com/Giulio2002/meer_keccak/pow"
)

var (
	nonceFlag = &cli.Uint64Flag{
		Name:  "nonce",
		Usage: "Nonce to place in the header before hashing",
	}
	wordsFlag = &cli.BoolFlag{
		Name:  "words",
		Usage: "Print the midstate as 50 little-endian 32-bit words",
	}
	targetFlag = &cli.StringFlag{
		Name:  "target",
		Usage: "Target as 32 little-endian hex bytes",
	}
	bitsFlag = &cli.StringFlag{
		Name:  "bits",
		Usage: "Target in compact form, hex (e.g. 1d00ffff)",
	}
	startFlag = &cli.Uint64Flag{
		Name:  "start",
		Usage: "First nonce to try",
	}
	countFlag = &cli.Uint64Flag{
		Name:  "count",
		Usage: "Number of nonces to try",
		Value: 1 << 20,
	}
	workersFlag = &cli.IntFlag{
		Name:  "workers",
		Usage: "Number of search goroutines",
		Value: runtime.NumCPU(),
	}
	timeoutFlag = &cli.DurationFlag{
		Name:  "timeout",
		Usage: "Abort the search after this long (0 disables)",
	}
)

func hashCommand() *cli.Command {
	return &cli.Command{
		Name:      "hash",
		Usage:     "Computes the Meer digest of a 117-byte header",
		ArgsUsage: "<header-hex>",
		Flags:     []cli.Flag{nonceFlag},
		Action:    hashAction,
	}
}

func midstateCommand() *cli.Command {
	return &cli.Command{
		Name:      "midstate",
		Usage:     "Computes the hardware midstate of a 117-byte header",
		ArgsUsage: "<header-hex>",
		Flags:     []cli.Flag{wordsFlag},
		Action:    midstateAction,
	}
}

func verifyCommand() *cli.Command {
	return &cli.Command{
		Name:      "verify",
		Usage:     "Checks a header's digest against a target",
		ArgsUsage: "<header-hex>",
		Flags:     []cli.Flag{targetFlag, bitsFlag, nonceFlag},
		Action:    verifyAction,
	}
}

func searchCommand() *cli.Command {
	return &cli.Command{
		Name:      "search",
		Usage:     "Searches for a nonce meeting a target on the CPU",
		ArgsUsage: "<header-hex>",
		Flags:     []cli.Flag{targetFlag, bitsFlag, startFlag, countFlag, workersFlag, timeoutFlag},
		Action:    searchAction,
	}
}

func hashAction(ctx *cli.Context) error {
	header, err := headerArg(ctx)
	if err != nil {
		return err
	}
	digest, err := keccak.MeerHash(header)
	if err != nil {
		return err
	}
	fmt.Fprintln(ctx.App.Writer, hex.EncodeToString(digest[:]))
	return nil
}

func midstateAction(ctx *cli.Context) error {
	header, err := headerArg(ctx)
	if err != nil {
		return err
	}
	m, err := keccak.MeerMidstate(header)
	if err != nil {
		return err
	}
	if !ctx.Bool(wordsFlag.Name) {
		fmt.Fprintln(ctx.App.Writer, hex.EncodeToString(m[:]))
		return nil
	}
	words := m.Words()
	out := make([]string, len(words))
	for i, w := range words {
		out[i] = fmt.Sprintf("%08x", w)
	}
	fmt.Fprintln(ctx.App.Writer, strings.Join(out, " "))
	return nil
}

func verifyAction(ctx *cli.Context) error {
	w, err := workArgs(ctx)
	if err != nil {
		return err
	}
	s, err := w.Verify(w.Nonce())
	if err != nil {
		return err
	}
	log.Debugw("share verified", "nonce", s.Nonce)
	fmt.Fprintf(ctx.App.Writer, "%x meets target\n", s.Digest)
	return nil
}

func searchAction(ctx *cli.Context) error {
	w, err := workArgs(ctx)
	if err != nil {
		return err
	}
	sctx := ctx.Context
	if d := ctx.Duration(timeoutFlag.Name); d > 0 {
		var cancel context.CancelFunc
		sctx, cancel = context.WithTimeout(sctx, d)
		defer cancel()
	}
	cfg := pow.SearchConfig{
		Start:   ctx.Uint64(startFlag.Name),
		Count:   ctx.Uint64(countFlag.Name),
		Workers: ctx.Int(workersFlag.Name),
	}
	log.Infow("searching nonces", "start", cfg.Start, "count", cfg.Count, "workers", cfg.Workers)
	s, err := pow.Search(sctx, w, cfg)
	if err != nil {
		return err
	}
	fmt.Fprintf(ctx.App.Writer, "nonce  %d\ndigest %x\nheader %x\n", s.Nonce, s.Digest, s.Header)
	return nil
}

// headerArg decodes the header argument and applies --nonce when given.
func headerArg(ctx *cli.Context) ([]byte, error) {
	if ctx.NArg() != 1 {
		return nil, errors.New("need header hex as the only argument")
	}
	header, err := decodeHex(ctx.Args().First())
	if err != nil {
		return nil, fmt.Errorf("invalid header: %w", err)
	}
	if len(header) != keccak.HeaderSize {
		return nil, fmt.Errorf("%w: got %d bytes, want %d", keccak.ErrInvalidHeaderLength, len(header), keccak.HeaderSize)
	}
	if ctx.IsSet(nonceFlag.Name) {
		w := pow.Work{Header: [keccak.HeaderSize]byte(header)}
		w.SetNonce(ctx.Uint64(nonceFlag.Name))
		header = w.Header[:]
	}
	return header, nil
}

// workArgs builds a work unit from the header argument and target flags.
func workArgs(ctx *cli.Context) (*pow.Work, error) {
	header, err := headerArg(ctx)
	if err != nil {
		return nil, err
	}
	target, err := targetArg(ctx)
	if err != nil {
		return nil, err
	}
	return pow.NewWork(header, target)
}

func targetArg(ctx *cli.Context) ([]byte, error) {
	switch {
	case ctx.IsSet(targetFlag.Name) && ctx.IsSet(bitsFlag.Name):
		return nil, errors.New("--target and --bits are mutually exclusive")
	case ctx.IsSet(targetFlag.Name):
		target, err := decodeHex(ctx.String(targetFlag.Name))
		if err != nil {
			return nil, fmt.Errorf("invalid target: %w", err)
		}
		return target, nil
	case ctx.IsSet(bitsFlag.Name):
		bits, err := strconv.ParseUint(strings.TrimPrefix(ctx.String(bitsFlag.Name), "0x"), 16, 32)
		if err != nil {
			return nil, fmt.Errorf("invalid bits: %w", err)
		}
		n, err := pow.CompactToTarget(uint32(bits))
		if err != nil {
			return nil, err
		}
		target := pow.IntToTarget(n)
		log.Debugw("expanded compact target", "bits", fmt.Sprintf("%08x", bits), "target", n.Hex())
		return target[:], nil
	default:
		return nil, errors.New("one of --target or --bits is required")
	}
}

func decodeHex(s string) ([]byte, error) {
	return hex.DecodeString(strings.TrimPrefix(strings.TrimSpace(s), "0x"))
}
