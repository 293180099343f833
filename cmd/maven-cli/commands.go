package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/foundry/mavenrepo/internal/core/models"
)

const defaultServer = "http://localhost:8080"

type globalFlags struct {
	server   string
	user     string
	password string
	repo     string
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	g := &globalFlags{}
	root := &cobra.Command{
		Use:           "maven-cli",
		Short:         "Browse and publish to a Maven repository server",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	pf := root.PersistentFlags()
	pf.StringVar(&g.server, "server", envOr("MAVEN_SERVER", defaultServer), "server URL")
	pf.StringVar(&g.user, "user", os.Getenv("MAVEN_USERNAME"), "publish username")
	pf.StringVar(&g.password, "password", os.Getenv("MAVEN_PASSWORD"), "publish password")
	pf.StringVar(&g.repo, "repo", "releases", "repository for read commands (releases or snapshots)")

	root.AddCommand(
		newGroupsCmd(g),
		newArtifactsCmd(g),
		newVersionsCmd(g),
		newFilesCmd(g),
		newLatestCmd(g),
		newPushCmd(g),
		newPullCmd(g),
		newPublishCmd(g, "release"),
		newPublishCmd(g, "snapshot"),
		newPurgeCmd(g),
	)
	return root
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func (g *globalFlags) client() *client {
	return newClient(g.server, g.user, g.password)
}

func (g *globalFlags) query(kv ...string) url.Values {
	q := url.Values{}
	if g.repo != "" {
		q.Set("repo", g.repo)
	}
	for i := 0; i+1 < len(kv); i += 2 {
		q.Set(kv[i], kv[i+1])
	}
	return q
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newGroupsCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "groups",
		Short: "List top-level groups",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var groups []string
			if err := g.client().getData(cmd.Context(), "/api/groups", g.query(), &groups); err != nil {
				return err
			}
			return printJSON(cmd, groups)
		},
	}
}

func newArtifactsCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "artifacts <group>",
		Short: "List artifacts and subgroups of a group",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var entries []models.ArtifactEntry
			if err := g.client().getData(cmd.Context(), "/api/artifacts", g.query("group", args[0]), &entries); err != nil {
				return err
			}
			return printJSON(cmd, entries)
		},
	}
}

func newVersionsCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "versions <group> <artifact>",
		Short: "List versions of an artifact, newest first",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var versions []models.VersionEntry
			if err := g.client().getData(cmd.Context(), "/api/versions", g.query("group", args[0], "artifact", args[1]), &versions); err != nil {
				return err
			}
			return printJSON(cmd, versions)
		},
	}
}

func newFilesCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "files <group> <artifact> <version>",
		Short: "List files of a version",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			var files []models.FileEntry
			q := g.query("group", args[0], "artifact", args[1], "version", args[2])
			if err := g.client().getData(cmd.Context(), "/api/files", q, &files); err != nil {
				return err
			}
			return printJSON(cmd, files)
		},
	}
}

func newLatestCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "latest <group> <artifact>",
		Short: "Print the latest version of an artifact",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var version string
			if err := g.client().getData(cmd.Context(), "/api/latest", g.query("group", args[0], "artifact", args[1]), &version); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), version)
			return nil
		},
	}
}

func newPushCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "push <repository-path> <file>",
		Short: "Upload a file to its literal repository path, as a build tool would",
		Example: "  maven-cli push releases/com/example/lib/1.0/lib-1.0.jar build/libs/lib-1.0.jar\n" +
			"  maven-cli push snapshots/com/example/lib/1.1-SNAPSHOT/lib-1.1-20240118.123456-1.jar lib.jar",
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			start := time.Now()
			size, err := g.client().put(cmd.Context(), "/"+strings.TrimPrefix(args[0], "/"), args[1], cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Pushed %s\n", args[0])
			fmt.Fprintf(out, "  Size:     %s\n", formatBytes(size))
			fmt.Fprintf(out, "  Duration: %v\n", time.Since(start).Round(time.Millisecond))
			return nil
		},
	}
}

func newPullCmd(g *globalFlags) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "pull <repository-path>",
		Short: "Download a file from the repository",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p := "/" + strings.TrimPrefix(args[0], "/")
			if output == "" {
				output = filepath.Base(p)
			}
			start := time.Now()
			n, err := g.client().download(cmd.Context(), p, output, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Pulled %s -> %s\n", args[0], output)
			fmt.Fprintf(out, "  Size:     %s\n", formatBytes(n))
			fmt.Fprintf(out, "  Duration: %v\n", time.Since(start).Round(time.Millisecond))
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file path (default: file name)")
	return cmd
}

func newPublishCmd(g *globalFlags, kind string) *cobra.Command {
	var classifier, extension string
	cmd := &cobra.Command{
		Use:   "publish-" + kind + " <group> <artifact> <version> <file>",
		Short: "Publish a " + kind + " file; the server assigns the file name",
		Args:  cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			ext := extension
			if ext == "" {
				ext = strings.TrimPrefix(filepath.Ext(args[3]), ".")
			}
			q := url.Values{}
			q.Set("group", args[0])
			q.Set("artifact", args[1])
			q.Set("version", args[2])
			q.Set("extension", ext)
			if classifier != "" {
				q.Set("classifier", classifier)
			}

			var res models.PublishResult
			if err := g.client().publish(cmd.Context(), "/api/publish/"+kind, q, args[3], &res); err != nil {
				return err
			}
			return printJSON(cmd, res)
		},
	}
	cmd.Flags().StringVar(&classifier, "classifier", "", "artifact classifier (e.g. sources)")
	cmd.Flags().StringVar(&extension, "extension", "", "file extension (default: taken from the file name)")
	return cmd
}

func newPurgeCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "purge <group.artifact>",
		Short: "Delete every file under a group or artifact in both repositories",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := g.client().purge(cmd.Context(), args[0])
			if res != nil {
				out := cmd.OutOrStdout()
				for _, k := range res.Deleted {
					fmt.Fprintln(out, k)
				}
				fmt.Fprintf(out, "Deleted %d objects\n", len(res.Deleted))
				for _, e := range res.Errors {
					fmt.Fprintf(cmd.ErrOrStderr(), "error: %s\n", e)
				}
			}
			return err
		},
	}
}
