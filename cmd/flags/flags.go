package flags

import (
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/ruteri/trustedcert-registry/api"
	"github.com/ruteri/trustedcert-registry/common"
	"github.com/urfave/cli/v2"
)

func SetupLogger(cCtx *cli.Context) (log *slog.Logger) {
	logJSON := cCtx.Bool(LogJsonFlag.Name)
	logDebug := cCtx.Bool(LogDebugFlag.Name)
	logUID := cCtx.Bool(LogUidFlag.Name)
	logService := cCtx.String("log-service")

	logger := common.SetupLogger(&common.LoggingOpts{
		Debug:   logDebug,
		JSON:    logJSON,
		Service: logService,
		Version: common.Version,
	})

	if logUID {
		id := uuid.Must(uuid.NewRandom())
		logger = logger.With("uid", id.String())
	}
	return logger
}

func ConfigureServer(cCtx *cli.Context, logger *slog.Logger, listenAddr string) *api.HTTPServerConfig {
	metricsAddr := cCtx.String(MetricsAddrFlag.Name)
	enablePprof := cCtx.Bool(PprofFlag.Name)
	drainDuration := time.Duration(cCtx.Int64(DrainSecondsFlag.Name)) * time.Second

	return &api.HTTPServerConfig{
		ListenAddr:               listenAddr,
		MetricsAddr:              metricsAddr,
		Log:                      logger,
		EnablePprof:              enablePprof,
		DrainDuration:            drainDuration,
		GracefulShutdownDuration: 30 * time.Second,
		ReadTimeout:              60 * time.Second,
		WriteTimeout:             30 * time.Second,
		SignatureMaxAge:          cCtx.Duration(SignatureMaxAgeFlag.Name),
		MaxArtifactSize:          cCtx.Int64(MaxArtifactSizeFlag.Name),
		AllowedOrigins:           cCtx.StringSlice(CORSOriginFlag.Name),
	}
}

var RpcAddrFlag = &cli.StringFlag{
	Name:    "rpc-addr",
	Value:   "http://127.0.0.1:8545",
	Usage:   "address to connect to RPC",
	EnvVars: []string{"REGISTRY_RPC_ADDR"},
}

var ContractAddrFlag = &cli.StringFlag{
	Name:    "contract-address",
	Usage:   "address of the deployed CertificateRegistry contract, 0x-prefixed",
	EnvVars: []string{"REGISTRY_CONTRACT_ADDRESS"},
}

var ChainIDFlag = &cli.Uint64Flag{
	Name:  "chain-id",
	Value: 31337,
	Usage: "chain id the contract is deployed on, served to front ends",
}

var SignatureMaxAgeFlag = &cli.DurationFlag{
	Name:  "signature-max-age",
	Value: api.DefaultSignatureMaxAge,
	Usage: "accepted clock skew of signed requests",
}

var MaxArtifactSizeFlag = &cli.Int64Flag{
	Name:  "max-artifact-size",
	Value: 10 * 1024 * 1024,
	Usage: "maximum size in bytes of an uploaded certificate document",
}

var CORSOriginFlag = &cli.StringSliceFlag{
	Name:  "cors-origin",
	Usage: "browser origin allowed to call the API, may be repeated, '*' allows any",
}

var LogJsonFlag = &cli.BoolFlag{
	Name:  "log-json",
	Value: false,
	Usage: "log in JSON format",
}
var LogDebugFlag = &cli.BoolFlag{
	Name:  "log-debug",
	Value: false,
	Usage: "log debug messages",
}
var LogUidFlag = &cli.BoolFlag{
	Name:  "log-uid",
	Value: false,
	Usage: "generate a uuid and add to all log messages",
}

var LogServiceFlagFn = func(service string) *cli.StringFlag {
	return &cli.StringFlag{
		Name:  "log-service",
		Value: service,
		Usage: "add 'service' tag to logs",
	}
}

var PprofFlag = &cli.BoolFlag{
	Name:  "pprof",
	Value: false,
	Usage: "enable pprof debug endpoint",
}
var DrainSecondsFlag = &cli.Int64Flag{
	Name:  "drain-seconds",
	Value: 45,
	Usage: "seconds to wait in drain HTTP request",
}
var MetricsAddrFlag = &cli.StringFlag{
	Name:  "metrics-addr",
	Value: "127.0.0.1:8090",
	Usage: "address to listen on for Prometheus metrics",
}

var CommonFlags = []cli.Flag{
	LogJsonFlag,
	LogDebugFlag,
	LogUidFlag,
	PprofFlag,
	DrainSecondsFlag,
	MetricsAddrFlag,
}
