package main

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/psyto/lattice/internal/identity"
	"github.com/psyto/lattice/pkg/client"
	"github.com/psyto/lattice/pkg/merkle"
	"github.com/psyto/lattice/pkg/trust"
)

// version is overridden by goreleaser via -ldflags "-X main.version=...".
var version = "dev"

var (
	serviceURL string
	cfgFile    string
	keyPath    string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "lattice",
	Short: "Lattice trust anchor CLI",
	Long: `lattice is the command-line interface for the lattice trust anchor service.

It manages owner keys, builds merkle commitments over trust edges, publishes
roots to the anchor service, and generates and checks inclusion proofs.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if cfgFile != "" {
			viper.SetConfigFile(cfgFile)
		} else {
			home, _ := os.UserHomeDir()
			viper.AddConfigPath(filepath.Join(home, ".lattice"))
			viper.SetConfigName("config")
			viper.SetConfigType("yaml")
		}
		viper.AutomaticEnv()
		_ = viper.ReadInConfig()

		if serviceURL == "" {
			serviceURL = viper.GetString("service_url")
		}
		if serviceURL == "" {
			serviceURL = "http://localhost:8080"
		}
		if keyPath == "" {
			keyPath = viper.GetString("key_path")
		}
		if keyPath == "" {
			keyPath = defaultKeyPath()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default ~/.lattice/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&serviceURL, "service", "", "lattice service URL (default http://localhost:8080)")
	rootCmd.PersistentFlags().StringVar(&keyPath, "key", "", "owner key file (default ~/.lattice/owner.key)")

	rootCmd.AddCommand(keygenCmd)
	rootCmd.AddCommand(tokenCmd)
	rootCmd.AddCommand(anchorCmd)
	rootCmd.AddCommand(edgeCmd)
	rootCmd.AddCommand(treeCmd)
	rootCmd.AddCommand(versionCmd)
}

func defaultKeyPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".lattice", "owner.key")
}

// proofBundle is the JSON shape shared by 'anchor publish --proofs-dir',
// 'tree proof', 'tree verify', and 'anchor verify --bundle'.
type proofBundle struct {
	Edge      trust.Edge    `json:"edge"`
	LeafIndex uint32        `json:"leaf_index"`
	Proof     []merkle.Hash `json:"proof"`
}

// ── keygen ───────────────────────────────────────────────────────────────────

var (
	keygenOut   string
	keygenForce bool
)

var keygenCmd = &cobra.Command{
	Use:   "keygen",
	Short: "Generate an ed25519 owner key",
	Long: `keygen creates a new ed25519 owner key and writes its seed to disk.

The public half of the key is your identity: it names your trust anchor,
derives its storage address, and is the subject of every owner token you
mint. Keep the key file secret.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := keygenOut
		if out == "" {
			out = keyPath
		}

		if _, err := os.Stat(out); err == nil && !keygenForce {
			return fmt.Errorf("refusing to overwrite %s (use --force)", out)
		}
		if err := os.MkdirAll(filepath.Dir(out), 0o700); err != nil {
			return fmt.Errorf("create key dir: %w", err)
		}

		key, err := identity.GenerateKey()
		if err != nil {
			return err
		}
		if err := identity.SaveKeyFile(out, key); err != nil {
			return err
		}

		owner := identity.Owner(key)
		addr, bump := identity.AnchorAddress(owner)

		fmt.Printf("✓ Owner key generated\n\n")
		fmt.Printf("  Key file:       %s\n", out)
		fmt.Printf("  Identity:       %s\n", owner)
		fmt.Printf("  Anchor address: %s\n", addr)
		fmt.Printf("  Bump:           %d\n\n", bump)
		fmt.Println("Next: lattice anchor init")
		return nil
	},
}

func init() {
	keygenCmd.Flags().StringVar(&keygenOut, "out", "", "Output path (default: the --key path)")
	keygenCmd.Flags().BoolVar(&keygenForce, "force", false, "Overwrite an existing key file")
}

// ── token ────────────────────────────────────────────────────────────────────

var tokenTTL time.Duration

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Mint a short-lived owner token",
	Long: `token signs an owner token with your key and prints it to stdout.

The token authenticates write calls against the anchor service:

  curl -H "Authorization: Bearer $(lattice token)" ...`,
	RunE: func(cmd *cobra.Command, args []string) error {
		key, err := identity.LoadKeyFile(keyPath)
		if err != nil {
			return fmt.Errorf("load owner key: %w", err)
		}
		tok, err := identity.NewTokenIssuer(key, tokenTTL).Issue()
		if err != nil {
			return err
		}
		fmt.Println(tok)
		return nil
	},
}

func init() {
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", time.Hour, "Token lifetime")
}

// ── anchor ───────────────────────────────────────────────────────────────────

var anchorCmd = &cobra.Command{
	Use:   "anchor",
	Short: "Manage your trust anchor on the lattice service",
}

var anchorInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a trust anchor for your identity",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := client.NewFromKeyFile(serviceURL, keyPath)
		if err != nil {
			return err
		}

		anchor, err := c.CreateAnchor(context.Background())
		if errors.Is(err, client.ErrAnchorExists) {
			owner, _ := c.Owner()
			return fmt.Errorf("anchor already exists for %s", owner)
		}
		if err != nil {
			return fmt.Errorf("initialize anchor: %w", err)
		}

		addr, _ := identity.AnchorAddress(anchor.Owner)

		fmt.Printf("✓ Trust anchor initialized\n\n")
		fmt.Printf("  Owner:   %s\n", anchor.Owner)
		fmt.Printf("  Address: %s\n", addr)
		fmt.Printf("  Root:    %s\n", anchor.MerkleRoot)
		fmt.Printf("  Bump:    %d\n\n", anchor.Bump)
		fmt.Println("Next: lattice anchor publish --edges edges.json")
		return nil
	},
}

var showFormat string

var anchorShowCmd = &cobra.Command{
	Use:   "show [owner-identity]",
	Short: "Show an anchor record",
	Long: `show fetches an anchor record from the service.

With no argument it shows the anchor for your own key's identity.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		owner, err := ownerArgOrKey(args)
		if err != nil {
			return err
		}

		c, err := client.New(serviceURL)
		if err != nil {
			return err
		}
		anchor, err := c.GetAnchor(context.Background(), owner)
		if err != nil {
			return fmt.Errorf("get anchor: %w", err)
		}

		if showFormat == "json" {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(anchor)
		}

		addr, _ := identity.AnchorAddress(anchor.Owner)
		fmt.Printf("Owner:        %s\n", anchor.Owner)
		fmt.Printf("Address:      %s\n", addr)
		fmt.Printf("Root:         %s\n", anchor.MerkleRoot)
		fmt.Printf("Edges:        %d\n", anchor.EdgeCount)
		fmt.Printf("Last updated: %s\n", time.Unix(anchor.LastUpdated, 0).UTC().Format(time.RFC3339))
		fmt.Printf("Created:      %s\n", time.Unix(anchor.CreatedAt, 0).UTC().Format(time.RFC3339))
		fmt.Printf("Bump:         %d\n", anchor.Bump)
		return nil
	},
}

var (
	updateRootHex string
	updateCount   uint16
)

var anchorUpdateCmd = &cobra.Command{
	Use:   "update",
	Short: "Commit a pre-computed merkle root to your anchor",
	Long: `update replaces your anchor's committed root with one you built elsewhere.

For the common build-and-commit flow, prefer 'lattice anchor publish'.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		root, err := merkle.ParseHash(updateRootHex)
		if err != nil {
			return fmt.Errorf("parse root: %w", err)
		}

		c, err := client.NewFromKeyFile(serviceURL, keyPath)
		if err != nil {
			return err
		}
		owner, _ := c.Owner()

		anchor, err := c.UpdateRoot(context.Background(), owner, root, updateCount)
		if err != nil {
			return fmt.Errorf("update root: %w", err)
		}

		fmt.Printf("✓ Root updated\n\n")
		fmt.Printf("  Root:  %s\n", anchor.MerkleRoot)
		fmt.Printf("  Edges: %d\n", anchor.EdgeCount)
		return nil
	},
}

func init() {
	anchorUpdateCmd.Flags().StringVar(&updateRootHex, "root", "", "New merkle root (64 hex chars)")
	anchorUpdateCmd.Flags().Uint16Var(&updateCount, "count", 0, "Edge count committed under the root")
	_ = anchorUpdateCmd.MarkFlagRequired("root")
}

var (
	publishEdgesPath string
	publishProofsDir string
)

var anchorPublishCmd = &cobra.Command{
	Use:   "publish",
	Short: "Build a merkle tree over your trust edges and commit its root",
	Long: `publish reads a JSON file of trust edges, builds the merkle tree locally,
and commits its root to your anchor in one step.

The edges file is a JSON array:

  [
    {"trustee": "<64 hex chars>", "dimension": 0, "weight": 5000, "created_at": 1700000000},
    ...
  ]

Dimensions: 0=trading 1=civic 2=developer 3=infra 4=creator.

With --proofs-dir, one inclusion-proof bundle per edge is written out for
distribution to the trustees:

  lattice anchor publish --edges edges.json --proofs-dir proofs/`,
	RunE: func(cmd *cobra.Command, args []string) error {
		edges, err := readEdgesFile(publishEdgesPath)
		if err != nil {
			return err
		}

		c, err := client.NewFromKeyFile(serviceURL, keyPath)
		if err != nil {
			return err
		}
		owner, _ := c.Owner()

		tree, anchor, err := c.PublishEdges(context.Background(), owner, edges)
		if err != nil {
			return fmt.Errorf("publish edges: %w", err)
		}

		fmt.Printf("✓ Published %d edge(s)\n\n", anchor.EdgeCount)
		fmt.Printf("  Owner: %s\n", anchor.Owner)
		fmt.Printf("  Root:  %s\n", anchor.MerkleRoot)

		if publishProofsDir == "" {
			return nil
		}
		if err := os.MkdirAll(publishProofsDir, 0o755); err != nil {
			return fmt.Errorf("create proofs dir: %w", err)
		}
		for i := range edges {
			proof, err := tree.Proof(uint32(i))
			if err != nil {
				return fmt.Errorf("proof for edge %d: %w", i, err)
			}
			bundle := proofBundle{Edge: edges[i], LeafIndex: uint32(i), Proof: proof}
			data, err := json.MarshalIndent(bundle, "", "  ")
			if err != nil {
				return fmt.Errorf("marshal proof bundle %d: %w", i, err)
			}
			path := filepath.Join(publishProofsDir, fmt.Sprintf("proof_%04d.json", i))
			if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
				return fmt.Errorf("write %s: %w", path, err)
			}
		}
		fmt.Printf("  Proofs: %s (%d bundle(s))\n", publishProofsDir, len(edges))
		return nil
	},
}

func init() {
	anchorPublishCmd.Flags().StringVar(&publishEdgesPath, "edges", "", "JSON file holding the trust edges")
	anchorPublishCmd.Flags().StringVar(&publishProofsDir, "proofs-dir", "", "Directory to write per-edge proof bundles into")
	_ = anchorPublishCmd.MarkFlagRequired("edges")
}

var verifyBundlePath string

var anchorVerifyCmd = &cobra.Command{
	Use:   "verify <owner-identity>",
	Short: "Check an inclusion proof against an anchor on the service",
	Long: `verify submits a proof bundle to the service, which replays it against
the owner's committed root.

  lattice anchor verify <owner> --bundle proofs/proof_0002.json

For offline checking against a known root, use 'lattice tree verify'.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		owner, err := trust.ParseIdentity(args[0])
		if err != nil {
			return fmt.Errorf("parse owner: %w", err)
		}
		bundle, err := readBundle(verifyBundlePath)
		if err != nil {
			return err
		}

		c, err := client.New(serviceURL)
		if err != nil {
			return err
		}
		if err := c.VerifyEdge(context.Background(), owner, bundle.Edge, bundle.Proof, bundle.LeafIndex); err != nil {
			return err
		}

		fmt.Println("✓ Edge is included in the anchor's current commitment")
		fmt.Printf("\n  Trustee:   %s\n", bundle.Edge.Trustee)
		fmt.Printf("  Dimension: %s\n", bundle.Edge.Dimension)
		fmt.Printf("  Weight:    %d\n", bundle.Edge.Weight)
		return nil
	},
}

func init() {
	anchorVerifyCmd.Flags().StringVar(&verifyBundlePath, "bundle", "", "Proof bundle JSON file (from 'anchor publish --proofs-dir' or 'tree proof')")
	_ = anchorVerifyCmd.MarkFlagRequired("bundle")

	anchorCmd.AddCommand(anchorInitCmd)
	anchorCmd.AddCommand(anchorShowCmd)
	anchorCmd.AddCommand(anchorUpdateCmd)
	anchorCmd.AddCommand(anchorPublishCmd)
	anchorCmd.AddCommand(anchorVerifyCmd)

	anchorShowCmd.Flags().StringVar(&showFormat, "format", "text", "Output format: text or json")
}

// ── edge ─────────────────────────────────────────────────────────────────────

var edgeCmd = &cobra.Command{
	Use:   "edge",
	Short: "Work with individual trust edges",
}

var (
	encTrustee   string
	encDimension string
	encWeight    uint16
	encCreatedAt int64
)

var edgeEncodeCmd = &cobra.Command{
	Use:   "encode",
	Short: "Canonically encode a trust edge and print its leaf hash",
	Long: `encode prints the canonical 43-byte encoding of a trust edge and the
merkle leaf derived from it.

  lattice edge encode --trustee <64 hex> --dimension trading --weight 5000`,
	RunE: func(cmd *cobra.Command, args []string) error {
		trustee, err := trust.ParseIdentity(encTrustee)
		if err != nil {
			return fmt.Errorf("parse trustee: %w", err)
		}
		dim, err := trust.ParseDimension(encDimension)
		if err != nil {
			return err
		}

		createdAt := encCreatedAt
		if createdAt == 0 {
			createdAt = time.Now().Unix()
		}

		edge := trust.Edge{Trustee: trustee, Dimension: dim, Weight: encWeight, CreatedAt: createdAt}
		if err := edge.Validate(); err != nil {
			return err
		}

		fmt.Printf("Encoded: %s\n", hex.EncodeToString(edge.Encode()))
		fmt.Printf("Leaf:    %s\n", edge.Leaf())
		return nil
	},
}

func init() {
	edgeEncodeCmd.Flags().StringVar(&encTrustee, "trustee", "", "Trustee identity (64 hex chars)")
	edgeEncodeCmd.Flags().StringVar(&encDimension, "dimension", "", "Trust dimension: trading, civic, developer, infra, or creator")
	edgeEncodeCmd.Flags().Uint16Var(&encWeight, "weight", 0, "Trust weight in basis points (0..10000)")
	edgeEncodeCmd.Flags().Int64Var(&encCreatedAt, "created-at", 0, "Edge creation unix timestamp (default: now)")
	_ = edgeEncodeCmd.MarkFlagRequired("trustee")
	_ = edgeEncodeCmd.MarkFlagRequired("dimension")

	edgeCmd.AddCommand(edgeEncodeCmd)
}

// ── tree ─────────────────────────────────────────────────────────────────────

var treeCmd = &cobra.Command{
	Use:   "tree",
	Short: "Build merkle trees and work with proofs offline",
}

var treeEdgesPath string

var treeRootCmd = &cobra.Command{
	Use:   "root",
	Short: "Build the merkle tree for an edge file and print its root",
	RunE: func(cmd *cobra.Command, args []string) error {
		edges, err := readEdgesFile(treeEdgesPath)
		if err != nil {
			return err
		}
		tree := trust.BuildTree(edges)

		fmt.Printf("Root:   %s\n", tree.Root())
		fmt.Printf("Leaves: %d\n\n", tree.Len())

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "INDEX\tTRUSTEE\tDIMENSION\tWEIGHT\tLEAF")
		for i, e := range edges {
			fmt.Fprintf(w, "%d\t%s\t%s\t%d\t%s\n", i, e.Trustee, e.Dimension, e.Weight, e.Leaf())
		}
		return w.Flush()
	},
}

var (
	proofEdgesPath string
	proofIndex     uint32
)

var treeProofCmd = &cobra.Command{
	Use:   "proof",
	Short: "Generate an inclusion-proof bundle for one edge",
	Long: `proof builds the merkle tree for an edge file and prints the proof
bundle for the edge at --index as JSON:

  lattice tree proof --edges edges.json --index 2 > proof_2.json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		edges, err := readEdgesFile(proofEdgesPath)
		if err != nil {
			return err
		}
		tree := trust.BuildTree(edges)

		proof, err := tree.Proof(proofIndex)
		if err != nil {
			return err
		}

		bundle := proofBundle{Edge: edges[proofIndex], LeafIndex: proofIndex, Proof: proof}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(bundle)
	},
}

var (
	treeVerifyRootHex string
	treeVerifyBundle  string
)

var treeVerifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Check a proof bundle against a root, offline",
	Long: `verify replays an inclusion proof locally against a known root. No
service connection is made; use 'lattice anchor verify' to check against
the root an anchor has actually committed.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		root, err := merkle.ParseHash(treeVerifyRootHex)
		if err != nil {
			return fmt.Errorf("parse root: %w", err)
		}
		bundle, err := readBundle(treeVerifyBundle)
		if err != nil {
			return err
		}
		if err := bundle.Edge.Validate(); err != nil {
			return err
		}

		if !merkle.VerifyProof(bundle.Proof, root, bundle.Edge.Leaf(), bundle.LeafIndex) {
			return fmt.Errorf("proof does not verify against root %s", root)
		}
		fmt.Println("✓ Proof verifies")
		return nil
	},
}

func init() {
	treeRootCmd.Flags().StringVar(&treeEdgesPath, "edges", "", "JSON file holding the trust edges")
	_ = treeRootCmd.MarkFlagRequired("edges")

	treeProofCmd.Flags().StringVar(&proofEdgesPath, "edges", "", "JSON file holding the trust edges")
	treeProofCmd.Flags().Uint32Var(&proofIndex, "index", 0, "Leaf index of the edge to prove")
	_ = treeProofCmd.MarkFlagRequired("edges")

	treeVerifyCmd.Flags().StringVar(&treeVerifyRootHex, "root", "", "Merkle root to verify against (64 hex chars)")
	treeVerifyCmd.Flags().StringVar(&treeVerifyBundle, "bundle", "", "Proof bundle JSON file")
	_ = treeVerifyCmd.MarkFlagRequired("root")
	_ = treeVerifyCmd.MarkFlagRequired("bundle")

	treeCmd.AddCommand(treeRootCmd)
	treeCmd.AddCommand(treeProofCmd)
	treeCmd.AddCommand(treeVerifyCmd)
}

// ── version ──────────────────────────────────────────────────────────────────

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the lattice CLI version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("lattice %s\n", version)
	},
}

// ── shared helpers ───────────────────────────────────────────────────────────

// ownerArgOrKey resolves the owner identity from the first positional arg,
// falling back to the identity of the configured key file.
func ownerArgOrKey(args []string) (trust.Identity, error) {
	if len(args) > 0 {
		owner, err := trust.ParseIdentity(args[0])
		if err != nil {
			return trust.Identity{}, fmt.Errorf("parse owner: %w", err)
		}
		return owner, nil
	}
	key, err := identity.LoadKeyFile(keyPath)
	if err != nil {
		return trust.Identity{}, fmt.Errorf("no owner given and cannot load key: %w", err)
	}
	return identity.Owner(key), nil
}

// readEdgesFile loads and validates a JSON array of trust edges.
func readEdgesFile(path string) ([]trust.Edge, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read edges file: %w", err)
	}
	var edges []trust.Edge
	if err := json.Unmarshal(data, &edges); err != nil {
		return nil, fmt.Errorf("parse edges file %q: %w", path, err)
	}
	for i, e := range edges {
		if err := e.Validate(); err != nil {
			return nil, fmt.Errorf("edge %d: %w", i, err)
		}
	}
	return edges, nil
}

// readBundle loads a proof bundle written by 'anchor publish' or 'tree proof'.
func readBundle(path string) (*proofBundle, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read proof bundle: %w", err)
	}
	var bundle proofBundle
	if err := json.Unmarshal(data, &bundle); err != nil {
		return nil, fmt.Errorf("parse proof bundle %q: %w", path, err)
	}
	return &bundle, nil
}
