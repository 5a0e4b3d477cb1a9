// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/gfxcache/lib/assetformat"
	"github.com/bureau-foundation/gfxcache/lib/assetkey"
	"github.com/bureau-foundation/gfxcache/lib/assettrack"
	"github.com/bureau-foundation/gfxcache/lib/cli"
	"github.com/bureau-foundation/gfxcache/lib/gfx"
)

// commonFlags are accepted by every subcommand.
type commonFlags struct {
	configPath string
	category   string
}

func (f *commonFlags) register(flagSet *pflag.FlagSet) {
	flagSet.StringVar(&f.configPath, "config", "", "configuration file (default: $GFXCACHE_CONFIG, then built-in defaults)")
	flagSet.StringVarP(&f.category, "category", "c", "", "asset category: drawable, mesh, or image (required)")
}

func (f *commonFlags) parseCategory() (assetkey.Category, error) {
	if f.category == "" {
		return 0, fmt.Errorf("--category is required")
	}
	return assetkey.ParseCategory(f.category)
}

func root(ctx context.Context, stdout io.Writer) *cli.Command {
	return &cli.Command{
		Name:        "gfxcache",
		Description: "Inspect and populate a graphics asset cache.",
		Subcommands: []*cli.Command{
			keyCommand(stdout),
			putCommand(ctx, stdout),
			getCommand(stdout),
			hasCommand(stdout),
			decodeCommand(ctx, stdout),
		},
	}
}

func keyCommand(stdout io.Writer) *cli.Command {
	var (
		common   commonFlags
		fromPath bool
		meta     bool
	)
	return &cli.Command{
		Name:    "key",
		Summary: "Print the content key of a file",
		Usage:   "gfxcache key <file> --category <category> [--path] [--meta]",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("key", pflag.ContinueOnError)
			common.register(flagSet)
			flagSet.BoolVar(&fromPath, "path", false, "hash the normalized path instead of the file content")
			flagSet.BoolVar(&meta, "meta", false, "print the metadata sidecar key")
			return flagSet
		},
		Run: func(args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("key takes exactly one file argument")
			}
			category, err := common.parseCategory()
			if err != nil {
				return err
			}
			var flags assetkey.CategoryFlags
			if meta {
				flags = assetkey.MetaData
			}

			var key assetkey.Key
			if fromPath {
				key = assetkey.GeneratePath(args[0], category, flags)
			} else if key, err = assetkey.GenerateFile(args[0], category, flags); err != nil {
				return err
			}
			fmt.Fprintln(stdout, key)
			return nil
		},
	}
}

func putCommand(ctx context.Context, stdout io.Writer) *cli.Command {
	var (
		common commonFlags
		meta   bool
		id     string
		isPNG  bool
	)
	return &cli.Command{
		Name:    "put",
		Summary: "Store a file in the cache and print its key",
		Description: "Store a file in the cache and print its key.\n\n" +
			"The file is stored as-is under its content key. With --png the file\n" +
			"is wrapped as an image payload and its header is written to the\n" +
			"metadata sidecar. With --meta the file becomes the sidecar of the\n" +
			"asset named by --id.",
		Usage: "gfxcache put <file> --category <category> [--png | --meta --id <id>]",
		Examples: []cli.Example{
			{Description: "Store a serialized mesh", Command: "gfxcache put --category mesh cube.mesh"},
			{Description: "Store a PNG texture", Command: "gfxcache put --category image --png albedo.png"},
		},
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("put", pflag.ContinueOnError)
			common.register(flagSet)
			flagSet.BoolVar(&meta, "meta", false, "store the file as the metadata sidecar of --id")
			flagSet.StringVar(&id, "id", "", "asset id for --meta")
			flagSet.BoolVar(&isPNG, "png", false, "wrap a PNG file as an image payload")
			return flagSet
		},
		Run: func(args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("put takes exactly one file argument")
			}
			category, err := common.parseCategory()
			if err != nil {
				return err
			}
			if meta && isPNG {
				return fmt.Errorf("--meta and --png are exclusive")
			}
			if meta && id == "" {
				return fmt.Errorf("--meta requires --id")
			}
			if isPNG && category != assetkey.Image {
				return fmt.Errorf("--png requires --category image")
			}

			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("reading %s: %w", args[0], err)
			}

			a, err := openApp(common.configPath, "put")
			if err != nil {
				return err
			}
			defer a.Close()

			var key assetkey.Key
			switch {
			case meta:
				assetID, err := assetkey.ParseID(id)
				if err != nil {
					return err
				}
				key = assetkey.Key{Category: category, Flags: assetkey.MetaData, ID: assetID}
				err = a.store(ctx, key, data)
				if err != nil {
					return err
				}
			case isPNG:
				key, err = a.storePNG(ctx, data)
				if err != nil {
					return err
				}
			default:
				key = a.cache.GenerateSourceKey(data, category, 0)
				if err := a.store(ctx, key, data); err != nil {
					return err
				}
			}
			a.logger.Info("stored", "key", key.String(), "bytes", len(data))
			fmt.Fprintln(stdout, key)
			return nil
		},
	}
}

func (a *app) store(ctx context.Context, key assetkey.Key, data []byte) error {
	return a.cache.Store(assetkey.InfoFromKey(key), data).Wait(ctx)
}

// storePNG stores a PNG as an image payload plus its header sidecar.
// The key is derived from the original PNG bytes.
func (a *app) storePNG(ctx context.Context, data []byte) (assetkey.Key, error) {
	key := a.cache.GenerateSourceKey(data, assetkey.Image, 0)
	header := assetformat.TextureHeader{DataFormat: assetformat.PNG, Channels: 4}

	payload, err := assetformat.MarshalTexture(assetformat.SerializedTexture{Header: header, Data: data})
	if err != nil {
		return key, err
	}
	sidecar, err := assetformat.MarshalTextureHeader(header)
	if err != nil {
		return key, err
	}

	primary := a.cache.Store(assetkey.InfoFromKey(key), payload)
	meta := a.cache.Store(assetkey.InfoFromKey(key.MetaKey()), sidecar)
	return key, errors.Join(primary.Wait(ctx), meta.Wait(ctx))
}

func getCommand(stdout io.Writer) *cli.Command {
	var (
		common commonFlags
		meta   bool
		output string
	)
	return &cli.Command{
		Name:    "get",
		Summary: "Write a stored payload's raw bytes to stdout or a file",
		Usage:   "gfxcache get <id> --category <category> [--meta] [-o <file>]",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("get", pflag.ContinueOnError)
			common.register(flagSet)
			flagSet.BoolVar(&meta, "meta", false, "read the metadata sidecar")
			flagSet.StringVarP(&output, "output", "o", "", "write to this file instead of stdout")
			return flagSet
		},
		Run: func(args []string) error {
			info, err := parseTarget(args, &common, meta)
			if err != nil {
				return err
			}
			a, err := openApp(common.configPath, "get")
			if err != nil {
				return err
			}
			defer a.Close()

			// Raw bytes only; decode goes through the codec.
			data, err := a.cache.FetchImmediate(info)
			if err != nil {
				return err
			}

			if output == "" {
				_, err = stdout.Write(data)
				return err
			}
			return os.WriteFile(output, data, 0o644)
		},
	}
}

func hasCommand(stdout io.Writer) *cli.Command {
	var (
		common commonFlags
		meta   bool
	)
	return &cli.Command{
		Name:    "has",
		Summary: "Report whether an asset is stored (exit 1 if not)",
		Usage:   "gfxcache has <id> --category <category> [--meta]",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("has", pflag.ContinueOnError)
			common.register(flagSet)
			flagSet.BoolVar(&meta, "meta", false, "check the metadata sidecar")
			return flagSet
		},
		Run: func(args []string) error {
			info, err := parseTarget(args, &common, meta)
			if err != nil {
				return err
			}
			a, err := openApp(common.configPath, "has")
			if err != nil {
				return err
			}
			defer a.Close()

			if !a.cache.HasAsset(info) {
				fmt.Fprintln(stdout, "false")
				return &cli.ExitError{Code: 1}
			}
			fmt.Fprintln(stdout, "true")
			return nil
		},
	}
}

func decodeCommand(ctx context.Context, stdout io.Writer) *cli.Command {
	var common commonFlags
	return &cli.Command{
		Name:    "decode",
		Summary: "Decode a stored asset and print a summary",
		Usage:   "gfxcache decode <id>... --category <category>",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("decode", pflag.ContinueOnError)
			common.register(flagSet)
			return flagSet
		},
		Run: func(args []string) error {
			if len(args) == 0 {
				return fmt.Errorf("decode takes at least one asset id")
			}
			category, err := common.parseCategory()
			if err != nil {
				return err
			}
			a, err := openApp(common.configPath, "decode")
			if err != nil {
				return err
			}
			defer a.Close()

			// Keep decoded objects alive until every summary is printed
			// so shared sub-resources stay shared across arguments.
			var decoded []any
			for _, arg := range args {
				id, err := assetkey.ParseID(arg)
				if err != nil {
					return err
				}
				asset, err := a.decode(ctx, assetkey.Key{Category: category, ID: id})
				if err != nil {
					return err
				}
				decoded = append(decoded, asset)
				fmt.Fprintf(stdout, "%s %s\n", arg, summarize(asset))
			}

			a.loader.GC()
			inspected := a.tracker.GC(a.config.Tracker.GCBudget)
			a.logger.Debug("decode finished",
				"assets", len(decoded),
				"tracked", a.tracker.Len(),
				"gc_inspected", inspected)
			return nil
		},
	}
}

// decode fetches key through the loader and registers the decoded
// object with the tracker.
func (a *app) decode(ctx context.Context, key assetkey.Key) (any, error) {
	entry := a.loader.GetOrInsert(assetkey.InfoFromKey(key))
	request := entry.Request()
	if err := request.Wait(ctx); err != nil {
		return nil, err
	}

	unlock := a.loader.LockShared(entry)
	defer unlock()
	asset := request.Asset()
	switch typed := asset.(type) {
	case *gfx.Mesh:
		assettrack.Insert(a.tracker, key, typed)
	case *gfx.Texture:
		assettrack.Insert(a.tracker, key, typed)
	case *gfx.Drawable:
		assettrack.Insert(a.tracker, key, typed)
	default:
		return nil, fmt.Errorf("%s decoded to %T", key, asset)
	}
	return asset, nil
}

func summarize(asset any) string {
	switch typed := asset.(type) {
	case *gfx.Mesh:
		return fmt.Sprintf("mesh vertices=%d indices=%d stride=%d",
			typed.VertexCount(), typed.IndexCount(), typed.Format.VertexStride())
	case *gfx.Texture:
		return fmt.Sprintf("texture %dx%d channels=%d bytes=%d",
			typed.Format.Width, typed.Format.Height, typed.Channels, len(typed.Pixels))
	case *gfx.Drawable:
		mesh := "none"
		if typed.Mesh != nil && typed.Mesh.Source != nil {
			mesh = typed.Mesh.Source.String()
		}
		return fmt.Sprintf("drawable mesh=%s textures=%d parameters=%d",
			mesh, len(typed.Parameters.Textures), len(typed.Parameters.Basic))
	default:
		return fmt.Sprintf("%T", asset)
	}
}

func parseTarget(args []string, common *commonFlags, meta bool) (assetkey.Info, error) {
	if len(args) != 1 {
		return assetkey.Info{}, fmt.Errorf("expected exactly one asset id")
	}
	category, err := common.parseCategory()
	if err != nil {
		return assetkey.Info{}, err
	}
	id, err := assetkey.ParseID(args[0])
	if err != nil {
		return assetkey.Info{}, err
	}
	key := assetkey.Key{Category: category, ID: id}
	if meta {
		key = key.MetaKey()
	}
	return assetkey.InfoFromKey(key), nil
}
