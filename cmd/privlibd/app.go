package main

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"privlib/internal/conceal"
	"privlib/internal/config"
	"privlib/internal/health"
	"privlib/internal/ledger"
	"privlib/internal/lifecycle"
	"privlib/internal/logging"
	"privlib/internal/metrics"
	"privlib/internal/status"
	"privlib/internal/wallet"
)

const gatewayKeyFile = "gateway.key"

// app is the wired service.
type app struct {
	cfg      *config.Config
	log      *logging.Logger
	registry *prometheus.Registry
	metrics  *metrics.Metrics
	wallet   *wallet.Session
	contract *ledger.Contract
	tracker  *status.Tracker
	ctrl     *lifecycle.Controller
	health   *health.HealthChecker
}

// newApp wires every component from cfg. Failing to set up the encryption
// keys is not fatal: the controller reports it and refuses to publish.
func newApp(cfg *config.Config, log *logging.Logger) (*app, error) {
	a := &app{
		cfg:      cfg,
		log:      log,
		registry: prometheus.NewRegistry(),
		wallet:   wallet.NewSession(),
	}
	a.registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	a.metrics = metrics.New(a.registry)

	var (
		encryptor lifecycle.Encryptor
		verifier  lifecycle.DisclosureVerifier
		checker   ledger.DisclosureChecker
	)
	keys, prover, keyErr := setupCrypto(cfg.Crypto.KeyDir)
	if keyErr != nil {
		log.Error("encryption setup failed", zap.Error(keyErr))
		checker = unavailableChecker{err: keyErr}
	} else {
		checker = prover
	}

	contract, err := ledger.LoadContract(cfg.Ledger.SnapshotPath, cfg.Ledger.ContractAddress,
		conceal.InputVerifier{}, checker, ledger.WithLogger(log.Named("contract")))
	if err != nil {
		return nil, err
	}
	a.contract = contract

	reader := ledger.NewReader(contract, cfg.Store.HandleCacheSize, cfg.Store.HandleCacheTTL, a.metrics)
	signer := ledger.NewSigner(contract, a.wallet, cfg.Ledger.ConfirmDelay, log.Named("signer"))
	if keyErr == nil {
		encryptor = conceal.NewEncryptor(keys.Pk)
		verifier = conceal.NewVerifier(keys, prover, reader, a.metrics)
	}

	a.tracker = status.NewTracker(cfg.StatusDurations(), log.Named("status"))
	a.ctrl = lifecycle.New(lifecycle.Options{
		Reader:              reader,
		Writer:              signer,
		Encryptor:           encryptor,
		Verifier:            verifier,
		Account:             a.wallet,
		Tracker:             a.tracker,
		Metrics:             a.metrics,
		Logger:              log,
		ReloadConcurrency:   cfg.Store.ReloadConcurrency,
		SerializeDisclosure: cfg.Disclosure.SerializePerRecord,
	})

	a.health = health.NewHealthChecker(version)
	a.health.RegisterComponent("ledger", func(ctx context.Context) error {
		ok, err := reader.CheckAvailability(ctx)
		if err != nil {
			return err
		}
		if !ok {
			return ledger.ErrUnavailable
		}
		return nil
	})
	a.health.RegisterComponent("encryption", func(context.Context) error {
		return keyErr
	})
	a.health.RegisterComponent("wallet", func(context.Context) error {
		if !a.wallet.Connected() {
			return fmt.Errorf("no wallet connected: %w", health.ErrDegraded)
		}
		return nil
	})
	return a, nil
}

// setupCrypto loads or creates the gateway key pair and the disclosure
// proving keys under keyDir.
func setupCrypto(keyDir string) (*conceal.KeyPair, *conceal.Prover, error) {
	keys, err := conceal.LoadOrCreateKeyPair(filepath.Join(keyDir, gatewayKeyFile))
	if err != nil {
		return nil, nil, fmt.Errorf("gateway key: %w", err)
	}
	prover, err := conceal.NewProver(keyDir)
	if err != nil {
		return nil, nil, fmt.Errorf("disclosure keys: %w", err)
	}
	return keys, prover, nil
}

// connect binds the wallet and loads the library.
func (a *app) connect(ctx context.Context, address string) error {
	if err := a.wallet.Connect(address); err != nil {
		return err
	}
	a.log.Audit("wallet_connected", map[string]interface{}{"address": a.wallet.Address()})
	return a.ctrl.Load(ctx)
}

func (a *app) Close() error {
	a.tracker.Close()
	var errs []error
	if err := a.contract.SaveToFile(a.cfg.Ledger.SnapshotPath); err != nil {
		errs = append(errs, fmt.Errorf("save contract: %w", err))
	}
	return errors.Join(errs...)
}

// unavailableChecker rejects every disclosure when the proving keys could not
// be set up.
type unavailableChecker struct{ err error }

func (c unavailableChecker) CheckDisclosure(conceal.Ciphertext, uint64, []byte) error {
	return fmt.Errorf("disclosure verification unavailable: %w", c.err)
}
