package main

import (
	"context"
	"crypto/ecdsa"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ruteri/trustedcert-registry/api/clients"
	"github.com/ruteri/trustedcert-registry/cmd/flags"
	"github.com/ruteri/trustedcert-registry/interfaces"
	"github.com/ruteri/trustedcert-registry/registry"
	"github.com/urfave/cli/v2"
)

var flagServerAddr = &cli.StringFlag{
	Name:    "server-addr",
	Value:   "http://127.0.0.1:8080",
	Usage:   "registry server address to request",
	EnvVars: []string{"REGISTRY_SERVER_ADDR"},
}

var flagPrivateKey = &cli.StringFlag{
	Name:    "private-key",
	Usage:   "hex encoded wallet key used to sign requests",
	EnvVars: []string{"REGISTRY_PRIVATE_KEY"},
}

var flagWallet = &cli.StringFlag{Name: "wallet", Required: true, Usage: "institution wallet, 0x-prefixed"}

func main() {
	app := &cli.App{
		Name:  "registry-client",
		Usage: "Issue, revoke and verify TrustedCert certificates",
		Flags: []cli.Flag{
			flagServerAddr,
			flagPrivateKey,
		},
		Commands: []*cli.Command{
			{
				Name:  "config",
				Usage: "print the server's public configuration",
				Action: withClient(func(ctx context.Context, c *clients.RegistryClient, cCtx *cli.Context) (any, error) {
					return c.Config(ctx)
				}),
			},
			{
				Name:  "status",
				Usage: "print admin, pause state and registry counters",
				Action: withClient(func(ctx context.Context, c *clients.RegistryClient, cCtx *cli.Context) (any, error) {
					status, err := c.Status(ctx)
					if err != nil {
						return nil, err
					}
					stats, err := c.Stats(ctx)
					if err != nil {
						return nil, err
					}
					return map[string]any{"status": status, "stats": stats}, nil
				}),
			},
			{
				Name:  "institutions",
				Usage: "list registered institutions",
				Action: withClient(func(ctx context.Context, c *clients.RegistryClient, cCtx *cli.Context) (any, error) {
					return c.ListInstitutions(ctx)
				}),
			},
			{
				Name:      "certificates",
				Usage:     "list certificates issued by a wallet",
				ArgsUsage: "<wallet>",
				Action: withClient(func(ctx context.Context, c *clients.RegistryClient, cCtx *cli.Context) (any, error) {
					wallet, err := interfaces.ParseWallet(cCtx.Args().First())
					if err != nil {
						return nil, err
					}
					return c.CertificatesOf(ctx, wallet)
				}),
			},
			{
				Name:      "roles",
				Usage:     "print the roles of a wallet, defaults to the signing wallet",
				ArgsUsage: "[wallet]",
				Action: withClient(func(ctx context.Context, c *clients.RegistryClient, cCtx *cli.Context) (any, error) {
					wallet := c.Address()
					if cCtx.Args().Present() {
						parsed, err := interfaces.ParseWallet(cCtx.Args().First())
						if err != nil {
							return nil, err
						}
						wallet = parsed
					}
					return c.Roles(ctx, wallet)
				}),
			},
			{
				Name:      "verify",
				Usage:     "verify a certificate",
				ArgsUsage: "<certificate id>",
				Action: withClient(func(ctx context.Context, c *clients.RegistryClient, cCtx *cli.Context) (any, error) {
					id, err := interfaces.NewCertificateIDFromHex(cCtx.Args().First())
					if err != nil {
						return nil, err
					}
					return c.VerifyCertificate(ctx, id)
				}),
			},
			{
				Name:  "events",
				Usage: "page through the audit log",
				Flags: []cli.Flag{
					&cli.Uint64Flag{Name: "after", Usage: "return events after this sequence number"},
					&cli.IntFlag{Name: "limit", Value: 100, Usage: "maximum number of events"},
				},
				Action: withClient(func(ctx context.Context, c *clients.RegistryClient, cCtx *cli.Context) (any, error) {
					events, next, err := c.Events(ctx, cCtx.Uint64("after"), cCtx.Int("limit"))
					if err != nil {
						return nil, err
					}
					return map[string]any{"events": events, "next": next}, nil
				}),
			},
			{
				Name:  "add-institution",
				Usage: "grant institution privilege to a wallet (admin)",
				Flags: []cli.Flag{
					flagWallet,
					&cli.StringFlag{Name: "name", Required: true, Usage: "display name"},
					&cli.StringFlag{Name: "description", Usage: "free-form description"},
				},
				Action: withClient(func(ctx context.Context, c *clients.RegistryClient, cCtx *cli.Context) (any, error) {
					wallet, err := interfaces.ParseWallet(cCtx.String(flagWallet.Name))
					if err != nil {
						return nil, err
					}
					return nil, c.AddInstitution(ctx, wallet, cCtx.String("name"), cCtx.String("description"))
				}),
			},
			{
				Name:  "remove-institution",
				Usage: "revoke institution privilege (admin)",
				Flags: []cli.Flag{flagWallet},
				Action: withClient(func(ctx context.Context, c *clients.RegistryClient, cCtx *cli.Context) (any, error) {
					wallet, err := interfaces.ParseWallet(cCtx.String(flagWallet.Name))
					if err != nil {
						return nil, err
					}
					return nil, c.RemoveInstitution(ctx, wallet)
				}),
			},
			{
				Name:  "pause",
				Usage: "suspend certificate registration and revocation (admin)",
				Action: withClient(func(ctx context.Context, c *clients.RegistryClient, cCtx *cli.Context) (any, error) {
					return nil, c.Pause(ctx)
				}),
			},
			{
				Name:  "unpause",
				Usage: "resume certificate registration and revocation (admin)",
				Action: withClient(func(ctx context.Context, c *clients.RegistryClient, cCtx *cli.Context) (any, error) {
					return nil, c.Unpause(ctx)
				}),
			},
			{
				Name:  "upload",
				Usage: "store a certificate document and print its cid (institution)",
				Flags: []cli.Flag{
					&cli.PathFlag{Name: "file", Required: true, Usage: "document to upload"},
				},
				Action: withClient(func(ctx context.Context, c *clients.RegistryClient, cCtx *cli.Context) (any, error) {
					data, err := os.ReadFile(cCtx.Path("file"))
					if err != nil {
						return nil, err
					}
					return c.UploadArtifact(ctx, data)
				}),
			},
			{
				Name:  "register",
				Usage: "register a certificate (institution)",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "recipient", Required: true, Usage: "recipient name"},
					&cli.StringFlag{Name: "title", Required: true, Usage: "certificate title"},
					&cli.StringFlag{Name: "cid", Required: true, Usage: "content identifier of the document"},
					&cli.StringFlag{Name: "external-id", Usage: "institution's own identifier, must be unique"},
				},
				Action: withClient(func(ctx context.Context, c *clients.RegistryClient, cCtx *cli.Context) (any, error) {
					id, err := c.RegisterCertificate(ctx, interfaces.CertificateRequest{
						RecipientName: cCtx.String("recipient"),
						Title:         cCtx.String("title"),
						CID:           cCtx.String("cid"),
						ExternalID:    cCtx.String("external-id"),
					})
					if err != nil {
						return nil, err
					}
					return map[string]any{"id": id}, nil
				}),
			},
			{
				Name:      "revoke",
				Usage:     "revoke a certificate (issuing institution)",
				ArgsUsage: "<certificate id>",
				Action: withClient(func(ctx context.Context, c *clients.RegistryClient, cCtx *cli.Context) (any, error) {
					id, err := interfaces.NewCertificateIDFromHex(cCtx.Args().First())
					if err != nil {
						return nil, err
					}
					return nil, c.RevokeCertificate(ctx, id)
				}),
			},
			{
				Name:      "onchain-verify",
				Usage:     "verify a certificate against the deployed contract",
				ArgsUsage: "<certificate id>",
				Flags:     []cli.Flag{flags.RpcAddrFlag, withRequired(flags.ContractAddrFlag)},
				Action: withOnchain(func(ctx context.Context, c *registry.OnchainRegistryClient, cCtx *cli.Context) (any, error) {
					id, err := interfaces.NewCertificateIDFromHex(cCtx.Args().First())
					if err != nil {
						return nil, err
					}
					return c.VerifyCertificate(ctx, id)
				}),
			},
			{
				Name:  "onchain-list",
				Usage: "list the institutions registered on the deployed contract",
				Flags: []cli.Flag{flags.RpcAddrFlag, withRequired(flags.ContractAddrFlag)},
				Action: withOnchain(func(ctx context.Context, c *registry.OnchainRegistryClient, cCtx *cli.Context) (any, error) {
					return c.ListInstitutions(ctx)
				}),
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func withRequired(f *cli.StringFlag) *cli.StringFlag {
	required := *f
	required.Required = true
	return &required
}

func loadKey(hexKey string) (*ecdsa.PrivateKey, error) {
	if hexKey == "" {
		return nil, nil
	}
	key, err := crypto.HexToECDSA(strings.TrimPrefix(hexKey, "0x"))
	if err != nil {
		return nil, fmt.Errorf("could not parse private key: %w", err)
	}
	return key, nil
}

func withClient(fn func(context.Context, *clients.RegistryClient, *cli.Context) (any, error)) cli.ActionFunc {
	return func(cCtx *cli.Context) error {
		key, err := loadKey(cCtx.String(flagPrivateKey.Name))
		if err != nil {
			return err
		}
		client := clients.NewRegistryClient(cCtx.String(flagServerAddr.Name), key)

		out, err := fn(cCtx.Context, client, cCtx)
		if err != nil {
			return err
		}
		return printJSON(out)
	}
}

func withOnchain(fn func(context.Context, *registry.OnchainRegistryClient, *cli.Context) (any, error)) cli.ActionFunc {
	return func(cCtx *cli.Context) error {
		contract, err := interfaces.ParseWallet(cCtx.String(flags.ContractAddrFlag.Name))
		if err != nil {
			return fmt.Errorf("could not parse contract address: %w", err)
		}

		ethClient, err := ethclient.DialContext(cCtx.Context, cCtx.String(flags.RpcAddrFlag.Name))
		if err != nil {
			return fmt.Errorf("could not dial RPC: %w", err)
		}
		defer ethClient.Close()

		client, err := registry.NewOnchainRegistryClient(ethClient, contract)
		if err != nil {
			return err
		}

		out, err := fn(cCtx.Context, client, cCtx)
		if err != nil {
			return registry.MapRevertError(err)
		}
		return printJSON(out)
	}
}

func printJSON(v any) error {
	if v == nil {
		fmt.Println("ok")
		return nil
	}
	encoded, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(encoded))
	return nil
}
