package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"github.com/rlay-project/rlay-client-sub000/config"
	"github.com/rlay-project/rlay-client-sub000/pkgs/assertion"
	"github.com/rlay-project/rlay-client-sub000/pkgs/ledger"
	"github.com/rlay-project/rlay-client-sub000/pkgs/ledgersync"
	"github.com/rlay-project/rlay-client-sub000/pkgs/metrics"
	"github.com/rlay-project/rlay-client-sub000/pkgs/ontology"
	"github.com/rlay-project/rlay-client-sub000/pkgs/payout"
	"github.com/rlay-project/rlay-client-sub000/pkgs/rediskeys"
	"github.com/rlay-project/rlay-client-sub000/pkgs/submitter"
)

// Engine owns the shared state and the periodic payout pipeline.
type Engine struct {
	cfg *config.Settings

	highwatermark *ledger.Highwatermark
	ledger        *ledger.Ledger
	registry      *ontology.Registry
	epochs        *payout.Epochs
	cumulative    *payout.Epochs

	store   *payout.FileStore
	mirror  *payout.Mirror
	decider *submitter.Decider
}

// tick runs one fill → cumulative → persist → submit pass. Each stage reads
// the shared state in the fixed lock order (high-watermark, ledger, payouts,
// cumulative) and no lock is held across I/O.
func (e *Engine) tick(ctx context.Context) {
	params := payout.CalcParams{
		EpochStartBlock: e.cfg.EpochStartBlock,
		EpochLength:     e.cfg.EpochLength,
	}

	highwatermark := e.highwatermark.Load()
	metrics.LedgerHighwatermark.Set(float64(highwatermark))
	metrics.LedgerPropositions.Set(float64(e.ledger.Len()))

	assertions := e.registry.Assertions()
	if err := payout.FillEpochPayouts(highwatermark, params, e.ledger, assertions, e.epochs, assertion.CID); err != nil {
		log.WithError(err).Error("Failed to fill epoch payouts")
		return
	}
	if err := payout.FillEpochPayoutsCumulative(e.epochs, e.cumulative); err != nil {
		log.WithError(err).Error("Failed to fill cumulative epoch payouts")
		return
	}

	if err := e.store.Persist(e.epochs); err != nil {
		log.WithError(err).Error("Failed to persist epoch payouts, will retry next tick")
	}
	if err := e.mirror.MirrorEpochs(ctx, e.epochs, false); err != nil {
		log.WithError(err).Warn("Failed to mirror epoch payouts")
	}
	if err := e.mirror.MirrorEpochs(ctx, e.cumulative, true); err != nil {
		log.WithError(err).Warn("Failed to mirror cumulative payouts")
	}
	if err := e.mirror.MirrorHighwatermark(ctx, highwatermark); err != nil {
		log.WithError(err).Warn("Failed to mirror ledger highwatermark")
	}

	if e.decider != nil {
		e.decider.SubmitRecentRoots(ctx)
	}
}

func (e *Engine) run(ctx context.Context) {
	ticker := time.NewTicker(e.cfg.FillInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			e.tick(ctx)
		}
	}
}

func newRedisClient(ctx context.Context, cfg *config.Settings) (*redis.Client, error) {
	opts := &redis.Options{
		Addr: fmt.Sprintf("%s:%s", cfg.RedisHost, cfg.RedisPort),
		DB:   cfg.RedisDB,
	}
	if password := strings.TrimSpace(cfg.RedisPassword); password != "" {
		opts.Password = password
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return client, nil
}

func main() {
	if err := config.LoadConfig(); err != nil {
		log.WithError(err).Fatal("Failed to load configuration")
	}
	cfg := config.SettingsObj

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	engine := &Engine{
		cfg:           cfg,
		highwatermark: ledger.NewHighwatermark(),
		ledger:        ledger.NewLedger(),
		// The registry is populated by the ontology sync collaborator.
		registry:   ontology.NewRegistry(),
		epochs:     payout.NewEpochs(),
		cumulative: payout.NewEpochs(),
	}

	store, err := payout.NewFileStore(cfg.PayoutsDir)
	if err != nil {
		log.WithError(err).Fatal("Failed to open payout store")
	}
	engine.store = store
	if err := store.Load(engine.epochs); err != nil {
		log.WithError(err).Fatal("Failed to load persisted epoch payouts")
	}

	// Optional Redis mirror
	var redisClient *redis.Client
	var keys *rediskeys.KeyBuilder
	if cfg.RedisHost != "" {
		redisClient, err = newRedisClient(ctx, cfg)
		if err != nil {
			log.WithError(err).Fatal("Failed to connect to Redis")
		}
		defer redisClient.Close()
		keys = rediskeys.NewKeyBuilder(cfg.PayoutContract)
		engine.mirror = payout.NewMirror(redisClient, keys)
	}

	// Optional chain integration: ledger sync and root submission
	if cfg.RPCURL != "" {
		ethClient, err := ethclient.Dial(cfg.RPCURL)
		if err != nil {
			log.WithError(err).Fatal("Failed to connect to Ethereum client")
		}
		defer ethClient.Close()

		monitor := ledgersync.NewMonitor(ledgersync.Config{
			Client:         ethClient,
			ContractAddr:   common.HexToAddress(cfg.StakingContract),
			Ledger:         engine.ledger,
			Highwatermark:  engine.highwatermark,
			StartBlock:     cfg.EventStartBlock,
			PollInterval:   cfg.EventPollInterval,
			BlockBatchSize: cfg.EventBlockBatchSize,
		})
		go monitor.Start(ctx)

		if cfg.PayoutContract != "" {
			contract, err := submitter.NewPayoutContract(cfg.RPCURL, cfg.PayoutContract, cfg.IssuerPrivateKey, cfg.ChainID)
			if err != nil {
				log.WithError(err).Fatal("Failed to create payout contract client")
			}
			defer contract.Close()

			engine.decider, err = submitter.NewDecider(contract, engine.cumulative, redisClient, keys)
			if err != nil {
				log.WithError(err).Fatal("Failed to create submission decider")
			}
		}
	}

	if cfg.MetricsEnabled {
		go metrics.Serve(cfg.MetricsPort)
	}

	go engine.run(ctx)
	log.Info("Payout engine started")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Info("Shutting down payout engine")
	cancel()
}
