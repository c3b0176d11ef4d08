package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/playpool/plinko/internal/game"
	"github.com/shopspring/decimal"
)

func main() {
	var (
		boardName  = flag.String("board", game.DefaultBoard, "board preset name")
		presetPath = flag.String("presets", "", "YAML file with extra board presets")
		drops      = flag.Int("drops", 1000, "number of balls to drop, one after another")
		bet        = flag.Int64("bet", 10, "bet per ball")
		seed       = flag.String("seed", "", "seed text for a reproducible run")
		serverSeed = flag.String("server-seed", "", "replay a fair session with this server seed")
		clientSeed = flag.String("client-seed", "", "client seed for -server-seed")
		maxTicks   = flag.Int("max-ticks", game.DefaultMaxTicks, "ticks before a ball counts as stuck")
		path       = flag.Bool("path", false, "print the path of every ball as JSON lines")
	)
	flag.Parse()

	presets, err := game.LoadPresets(*presetPath)
	if err != nil {
		log.Fatalf("load presets: %v", err)
	}
	cfg, err := presets.Get(*boardName)
	if err != nil {
		log.Fatalf("%v (available: %v)", err, presets.Names())
	}
	board, err := game.NewBoard(cfg)
	if err != nil {
		log.Fatalf("board %s: %v", *boardName, err)
	}

	var rng game.RandomSource
	switch {
	case *serverSeed != "":
		rng = game.NewFairSource(*serverSeed, *clientSeed, 0)
		fmt.Printf("fair replay: server_seed_hash=%s client_seed=%q\n", game.HashServerSeed(*serverSeed), *clientSeed)
	case *seed != "":
		rng = game.NewSeededSource(game.SeedFromString(*seed))
	default:
		rng = game.NewDefaultSource()
	}

	hits := make([]int, len(board.Slots))
	var wagered, paid int64
	var stuck int
	enc := json.NewEncoder(os.Stdout)

	for i := 0; i < *drops; i++ {
		res, err := game.SimulateDrop(board, rng, *bet, *maxTicks, *path)
		if errors.Is(err, game.ErrBallStuck) {
			stuck++
			continue
		}
		if err != nil {
			log.Fatalf("drop %d: %v", i+1, err)
		}
		wagered += *bet
		paid += res.Landed.Payout
		hits[res.Landed.Slot]++
		if *path {
			enc.Encode(res)
		}
	}

	fmt.Printf("board=%s drops=%d bet=%d stuck=%d\n", *boardName, *drops, *bet, stuck)
	landed := *drops - stuck
	for _, slot := range board.Slots {
		share := decimal.Zero
		if landed > 0 {
			share = decimal.NewFromInt(int64(hits[slot.Index])).Div(decimal.NewFromInt(int64(landed))).Mul(decimal.NewFromInt(100))
		}
		fmt.Printf("  slot %2d  x%-6s %6d  %s%%\n", slot.Index, decimal.NewFromFloat(slot.Multiplier).String(), hits[slot.Index], share.StringFixed(2))
	}
	rtp := decimal.Zero
	if wagered > 0 {
		rtp = decimal.NewFromInt(paid).Div(decimal.NewFromInt(wagered)).Mul(decimal.NewFromInt(100))
	}
	fmt.Printf("wagered=%d paid=%d rtp=%s%%\n", wagered, paid, rtp.StringFixed(2))
}
