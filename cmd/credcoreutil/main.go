// Command credcoreutil exercises the issue/filter/present/verify
// pipeline from the command line, against software keys, for manual
// interop testing. It is not a server.
package main

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"

	"github.com/nordicid/credcore/pkg/digest"
	"github.com/nordicid/credcore/pkg/logging"
	"github.com/nordicid/credcore/pkg/sdjwt"
	"github.com/nordicid/credcore/pkg/signing"
)

// envOptions overrides sdjwt.Options defaults from the environment,
// prefixed CREDCORE_ (e.g. CREDCORE_DIGESTALG=sha-384).
type envOptions struct {
	DigestAlg    string `envconfig:"DIGESTALG"`
	SaltSizeBits int    `envconfig:"SALTSIZEBITS"`
	IssuerAlg    string `envconfig:"ISSUERALG"`
	KBAlg        string `envconfig:"KBALG"`
	IncludeX5c   bool   `envconfig:"INCLUDEX5C"`
}

func main() {
	log := logging.NewSimple("credcoreutil")

	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	var err error
	switch os.Args[1] {
	case "issue":
		err = runIssue(os.Args[2:], log)
	case "filter":
		err = runFilter(os.Args[2:], log)
	case "present":
		err = runPresent(os.Args[2:], log)
	case "verify":
		err = runVerify(os.Args[2:], log)
	case "verifykb":
		err = runVerifyKb(os.Args[2:], log)
	case "genkey":
		err = runGenkey(os.Args[2:], log)
	default:
		usage()
		os.Exit(2)
	}
	if err != nil {
		log.Error(err, "credcoreutil failed")
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: credcoreutil <issue|filter|present|verify|verifykb|genkey> [flags]")
}

func loadOptions() (sdjwt.Options, error) {
	opts, err := sdjwt.NewOptions()
	if err != nil {
		return sdjwt.Options{}, err
	}
	var env envOptions
	if err := envconfig.Process("CREDCORE", &env); err != nil {
		return sdjwt.Options{}, fmt.Errorf("reading CREDCORE_ environment overrides: %w", err)
	}
	if env.DigestAlg != "" {
		opts.DigestAlg = digest.Alg(env.DigestAlg)
	}
	if env.SaltSizeBits != 0 {
		opts.SaltSizeBits = env.SaltSizeBits
	}
	if env.IssuerAlg != "" {
		opts.IssuerAlg = env.IssuerAlg
	}
	if env.KBAlg != "" {
		opts.KBAlg = env.KBAlg
	}
	if env.IncludeX5c {
		opts.IncludeX5c = env.IncludeX5c
	}
	return opts, opts.Validate()
}

func readJSONFile(path string) (map[string]any, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("parsing %s as JSON: %w", path, err)
	}
	return m, nil
}

func writeOutput(path, content string) error {
	if path == "" || path == "-" {
		fmt.Println(content)
		return nil
	}
	return os.WriteFile(path, []byte(content), 0o600)
}

func readCompact(path string) (string, error) {
	if path == "-" {
		raw, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", fmt.Errorf("reading stdin: %w", err)
		}
		return strings.TrimSpace(string(raw)), nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", path, err)
	}
	return strings.TrimSpace(string(raw)), nil
}

func runGenkey(args []string, log *logging.Log) error {
	fs := flag.NewFlagSet("genkey", flag.ExitOnError)
	keyID := fs.String("kid", "", "key ID to log with the generated key")
	privOut := fs.String("priv-out", "", "file to write the PKCS#8 private key PEM (stdout if empty)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return fmt.Errorf("generating key: %w", err)
	}
	der, err := x509.MarshalPKCS8PrivateKey(key)
	if err != nil {
		return fmt.Errorf("marshaling key: %w", err)
	}
	block := pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: der})

	if *keyID != "" {
		log.Info("generated key", "kid", *keyID)
	}
	return writeOutput(*privOut, string(block))
}

func loadSigner(path, keyID string) (*signing.SoftwareSigner, error) {
	if path == "" {
		key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
		if err != nil {
			return nil, fmt.Errorf("generating ephemeral key: %w", err)
		}
		return signing.NewSoftwareSigner(key, keyID)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading private key %s: %w", path, err)
	}
	block, _ := pem.Decode(raw)
	if block == nil {
		return nil, fmt.Errorf("no PEM block found in %s", path)
	}
	key, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("parsing private key %s: %w", path, err)
	}
	return signing.NewSoftwareSigner(key, keyID)
}

func runIssue(args []string, log *logging.Log) error {
	fs := flag.NewFlagSet("issue", flag.ExitOnError)
	claimsPath := fs.String("claims", "", "JSON file of selectively disclosable claims")
	nonSdPath := fs.String("non-sd", "", "JSON file of always-visible claims (must include iss)")
	keyPath := fs.String("key", "", "issuer private key PEM (ephemeral if empty)")
	keyID := fs.String("kid", "", "issuer key ID")
	out := fs.String("out", "-", "output file for the compact SD-JWT")
	holderJwkPath := fs.String("holder-jwk", "", "JSON file containing the holder's public JWK for cnf.jwk")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *claimsPath == "" || *nonSdPath == "" {
		return fmt.Errorf("issue requires -claims and -non-sd")
	}

	claims, err := readJSONFile(*claimsPath)
	if err != nil {
		return err
	}
	nonSd, err := readJSONFile(*nonSdPath)
	if err != nil {
		return err
	}
	var cnfJwk map[string]any
	if *holderJwkPath != "" {
		cnfJwk, err = readJSONFile(*holderJwkPath)
		if err != nil {
			return err
		}
	}

	opts, err := loadOptions()
	if err != nil {
		return err
	}
	signer, err := loadSigner(*keyPath, *keyID)
	if err != nil {
		return err
	}

	sd, err := sdjwt.Issue(context.Background(), sdjwt.IssueInput{
		Signer:      signer,
		Claims:      claims,
		NonSdClaims: nonSd,
		CnfJwk:      cnfJwk,
		Options:     opts,
	})
	if err != nil {
		return err
	}
	log.Info("issued credential", "disclosures", len(sd.Disclosures))
	return writeOutput(*out, sd.Compact)
}

func runFilter(args []string, log *logging.Log) error {
	fs := flag.NewFlagSet("filter", flag.ExitOnError)
	in := fs.String("in", "-", "compact SD-JWT to filter")
	paths := fs.String("paths", "", "comma-separated dotted claim paths to keep")
	out := fs.String("out", "-", "output file for the filtered compact SD-JWT")
	if err := fs.Parse(args); err != nil {
		return err
	}

	compact, err := readCompact(*in)
	if err != nil {
		return err
	}
	sd, err := sdjwt.Parse(compact)
	if err != nil {
		return err
	}

	var selPaths [][]string
	for _, p := range strings.Split(*paths, ",") {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		selPaths = append(selPaths, strings.Split(p, "."))
	}

	filtered, err := sdjwt.Filter(sd, sdjwt.Selector{Paths: selPaths})
	if err != nil {
		return err
	}
	log.Info("filtered credential", "kept", len(filtered.Disclosures))
	return writeOutput(*out, filtered.Compact)
}

func runPresent(args []string, log *logging.Log) error {
	fs := flag.NewFlagSet("present", flag.ExitOnError)
	in := fs.String("in", "-", "compact SD-JWT to present")
	keyPath := fs.String("key", "", "holder private key PEM")
	nonce := fs.String("nonce", "", "verifier-supplied nonce")
	aud := fs.String("aud", "", "verifier audience identifier")
	out := fs.String("out", "-", "output file for the compact SD-JWT+KB")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *keyPath == "" {
		return fmt.Errorf("present requires -key (the holder's private key)")
	}

	compact, err := readCompact(*in)
	if err != nil {
		return err
	}
	sd, err := sdjwt.Parse(compact)
	if err != nil {
		return err
	}
	signer, err := loadSigner(*keyPath, "")
	if err != nil {
		return err
	}

	presented, err := sdjwt.Present(context.Background(), sdjwt.PresentInput{
		SdJwt:        sd,
		KbSigner:     signer,
		Nonce:        *nonce,
		Audience:     *aud,
		CreationTime: time.Now(),
	})
	if err != nil {
		return err
	}
	log.Info("presented credential")
	return writeOutput(*out, presented.Compact)
}

func runVerify(args []string, log *logging.Log) error {
	fs := flag.NewFlagSet("verify", flag.ExitOnError)
	in := fs.String("in", "-", "compact SD-JWT to verify")
	issuerKeyPath := fs.String("issuer-key", "", "issuer public key PEM (PKIX)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *issuerKeyPath == "" {
		return fmt.Errorf("verify requires -issuer-key")
	}

	compact, err := readCompact(*in)
	if err != nil {
		return err
	}
	sd, err := sdjwt.Parse(compact)
	if err != nil {
		return err
	}
	pub, err := readPublicKeyPEM(*issuerKeyPath)
	if err != nil {
		return err
	}

	claims, err := sdjwt.Verify(sd, signing.NewJWTVerifier(pub))
	if err != nil {
		return err
	}
	log.Info("verified credential")
	return printJSON(claims)
}

func runVerifyKb(args []string, log *logging.Log) error {
	fs := flag.NewFlagSet("verifykb", flag.ExitOnError)
	in := fs.String("in", "-", "compact SD-JWT+KB to verify")
	issuerKeyPath := fs.String("issuer-key", "", "issuer public key PEM (PKIX)")
	nonce := fs.String("nonce", "", "expected nonce")
	aud := fs.String("aud", "", "expected audience")
	maxAge := fs.Duration("max-age", 0, "reject if the KB-JWT is older than this (0 disables the check)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *issuerKeyPath == "" {
		return fmt.Errorf("verifykb requires -issuer-key")
	}

	compact, err := readCompact(*in)
	if err != nil {
		return err
	}
	pub, err := readPublicKeyPEM(*issuerKeyPath)
	if err != nil {
		return err
	}

	claims, err := sdjwt.VerifyKb(sdjwt.VerifyKbInput{
		Compact:        compact,
		IssuerVerifier: signing.NewJWTVerifier(pub),
		CheckNonce:     func(n string) bool { return *nonce == "" || n == *nonce },
		CheckAudience:  func(a string) bool { return *aud == "" || a == *aud },
		CheckCreationTime: func(iat int64) bool {
			if *maxAge == 0 {
				return true
			}
			return time.Since(time.Unix(iat, 0)) <= *maxAge
		},
	})
	if err != nil {
		return err
	}
	log.Info("verified key-bound presentation")
	return printJSON(claims)
}

func readPublicKeyPEM(path string) (any, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading public key %s: %w", path, err)
	}
	block, _ := pem.Decode(raw)
	if block == nil {
		return nil, fmt.Errorf("no PEM block found in %s", path)
	}
	key, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("parsing public key %s: %w", path, err)
	}
	return key, nil
}

func printJSON(v any) error {
	raw, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(raw))
	return nil
}
