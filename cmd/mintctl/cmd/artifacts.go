package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mintforge/mintforge/internal/artifacts"
	"github.com/mintforge/mintforge/internal/manifest"
)

var artifactsCmd = &cobra.Command{
	Use:   "artifacts",
	Short: "Inspect and move compiled artifacts",
	Long: `Artifact store commands.

Compiled artifacts and deployment records live in the project's artifact
store (see the manifest's "store" field). Bundles move artifact sets
between machines with checksum verification.

Examples:
  mintctl artifacts list
  mintctl artifacts export build.tar.zst
  mintctl artifacts import build.tar.zst`,
}

var artifactsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List compiled artifacts",
	RunE:  runArtifactsList,
}

var artifactsExportCmd = &cobra.Command{
	Use:   "export <file>",
	Short: "Export artifacts to a bundle",
	Long: `Write artifacts to a compressed bundle with a checksum manifest.

With --name flags only the named artifacts are exported; otherwise the
whole store is.`,
	Args: cobra.ExactArgs(1),
	RunE: runArtifactsExport,
}

var artifactsImportCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import artifacts from a bundle",
	Long: `Read artifacts from a bundle into the store.

Every entry's checksum is verified before anything is saved; a corrupted
bundle imports nothing.`,
	Args: cobra.ExactArgs(1),
	RunE: runArtifactsImport,
}

var deploymentsCmd = &cobra.Command{
	Use:   "deployments [network]",
	Short: "List recorded deployments",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runDeploymentsList,
}

func init() {
	artifactsExportCmd.Flags().StringSlice("name", nil, "artifact names to export (default: all)")

	artifactsCmd.AddCommand(artifactsListCmd)
	artifactsCmd.AddCommand(artifactsExportCmd)
	artifactsCmd.AddCommand(artifactsImportCmd)

	rootCmd.AddCommand(artifactsCmd)
	rootCmd.AddCommand(deploymentsCmd)
}

// openStore opens the project's artifact store. The path comes from the
// manifest when one is present, otherwise the default location.
func openStore() (*artifacts.Store, error) {
	path := manifest.DefaultStorePath
	if m, err := manifest.Load(getManifestPath()); err == nil {
		path = m.Store
	} else if !errors.Is(err, manifest.ErrNotFound) {
		return nil, err
	}
	return artifacts.NewStore(path)
}

func runArtifactsList(cmd *cobra.Command, args []string) error {
	store, err := openStore()
	if err != nil {
		printError(err)
		return err
	}
	defer store.Close()

	arts := store.Artifacts()

	if jsonOut {
		return printJSON(map[string]interface{}{
			"artifacts": arts,
			"count":     len(arts),
		})
	}

	if len(arts) == 0 {
		fmt.Println("No artifacts found. Run 'mintctl compile' first.")
		return nil
	}

	w := newTable()
	printTableHeader(w, "NAME", "SOURCE", "COMPILER", "BYTECODE", "COMPILED")
	for _, a := range arts {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d bytes\t%s\n",
			a.Name,
			a.SourcePath,
			a.CompilerVersion,
			len(a.Bytecode)/2,
			a.CompiledAt.Format("2006-01-02 15:04:05"),
		)
	}
	return w.Flush()
}

func runArtifactsExport(cmd *cobra.Command, args []string) error {
	dst := args[0]
	names, _ := cmd.Flags().GetStringSlice("name")

	store, err := openStore()
	if err != nil {
		printError(err)
		return err
	}
	defer store.Close()

	if err := store.ExportBundle(dst, names...); err != nil {
		printError(err)
		return err
	}

	if jsonOut {
		return printJSON(map[string]string{
			"status": "exported",
			"bundle": dst,
		})
	}

	fmt.Printf("%s Exported bundle: %s\n", colorGreen("✓"), dst)
	return nil
}

func runArtifactsImport(cmd *cobra.Command, args []string) error {
	src := args[0]

	store, err := openStore()
	if err != nil {
		printError(err)
		return err
	}
	defer store.Close()

	imported, err := store.ImportBundle(src)
	if err != nil {
		printError(err)
		return err
	}

	if jsonOut {
		return printJSON(map[string]interface{}{
			"status":    "imported",
			"artifacts": imported,
			"count":     len(imported),
		})
	}

	fmt.Printf("%s Imported %d artifacts from %s\n", colorGreen("✓"), len(imported), src)
	for _, a := range imported {
		fmt.Printf("  %s\n", a.Name)
	}
	return nil
}

func runDeploymentsList(cmd *cobra.Command, args []string) error {
	network := ""
	if len(args) == 1 {
		network = args[0]
	}

	store, err := openStore()
	if err != nil {
		printError(err)
		return err
	}
	defer store.Close()

	records := store.Deployments(network)

	if jsonOut {
		return printJSON(map[string]interface{}{
			"deployments": records,
			"count":       len(records),
		})
	}

	if len(records) == 0 {
		fmt.Println("No deployments recorded")
		return nil
	}

	w := newTable()
	printTableHeader(w, "ID", "NETWORK", "CONTRACT", "ADDRESS", "BLOCK", "DEPLOYED")
	for _, r := range records {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%s\n",
			truncate(r.ID, 12),
			r.Network,
			r.Contract,
			r.Address,
			r.BlockNumber,
			r.DeployedAt.Format("2006-01-02 15:04:05"),
		)
	}
	return w.Flush()
}
