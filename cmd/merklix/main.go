// Command merklix is a small companion CLI for exercising a Merklix tree
// store from the shell, grounded on database/mpt/tool/main.go's
// cli.App/cli.Command wiring.
package main

import (
	"encoding/hex"
	"fmt"
	"log"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/merklixdb/merklix/fsport"
	"github.com/merklixdb/merklix/hashing"
	"github.com/merklixdb/merklix/proof"
	"github.com/merklixdb/merklix/tree"
)

var (
	bitsFlag = &cli.IntFlag{
		Name:  "bits",
		Usage: "key width in bits (must be a multiple of 8)",
		Value: 256,
	}
	dirFlag = &cli.StringFlag{
		Name:     "dir",
		Usage:    "directory backing the tree's store",
		Required: true,
	}
	standaloneFlag = &cli.BoolFlag{
		Name:  "standalone",
		Usage: "self-manage meta records and historical-root lookup",
		Value: true,
	}
)

func main() {
	app := &cli.App{
		Name:  "merklix",
		Usage: "inspect and mutate a Merklix tree store",
		Commands: []*cli.Command{
			insertCmd,
			getCmd,
			removeCmd,
			commitCmd,
			proveCmd,
			verifyCmd,
			infoCmd,
			destroyCmd,
		},
	}
	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func openTree(c *cli.Context) (*tree.Tree, error) {
	return tree.Open(tree.Config{
		FS:         fsport.OSFileSystem{},
		Hasher:     hashing.SHA256{},
		Bits:       c.Int("bits"),
		Prefix:     c.String("dir"),
		Standalone: c.Bool("standalone"),
	})
}

func decodeKey(s string, bits int) ([]byte, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("key must be hex: %w", err)
	}
	if len(b) != bits/8 {
		return nil, fmt.Errorf("key must be %d bytes, got %d", bits/8, len(b))
	}
	return b, nil
}

var insertCmd = &cli.Command{
	Name:      "insert",
	Usage:     "insert or update a key and commit",
	Flags:     []cli.Flag{bitsFlag, dirFlag, standaloneFlag},
	ArgsUsage: "<hex-key> <value>",
	Action: func(c *cli.Context) error {
		t, err := openTree(c)
		if err != nil {
			return err
		}
		defer t.Close()
		key, err := decodeKey(c.Args().Get(0), c.Int("bits"))
		if err != nil {
			return err
		}
		if err := t.Insert(key, []byte(c.Args().Get(1))); err != nil {
			return err
		}
		root, err := t.Commit()
		if err != nil {
			return err
		}
		fmt.Println(hex.EncodeToString(root))
		return nil
	},
}

var getCmd = &cli.Command{
	Name:      "get",
	Usage:     "print the value stored under a key",
	Flags:     []cli.Flag{bitsFlag, dirFlag, standaloneFlag},
	ArgsUsage: "<hex-key>",
	Action: func(c *cli.Context) error {
		t, err := openTree(c)
		if err != nil {
			return err
		}
		defer t.Close()
		key, err := decodeKey(c.Args().Get(0), c.Int("bits"))
		if err != nil {
			return err
		}
		value, ok, err := t.Get(key)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("key not found")
		}
		fmt.Println(string(value))
		return nil
	},
}

var removeCmd = &cli.Command{
	Name:      "remove",
	Usage:     "remove a key and commit",
	Flags:     []cli.Flag{bitsFlag, dirFlag, standaloneFlag},
	ArgsUsage: "<hex-key>",
	Action: func(c *cli.Context) error {
		t, err := openTree(c)
		if err != nil {
			return err
		}
		defer t.Close()
		key, err := decodeKey(c.Args().Get(0), c.Int("bits"))
		if err != nil {
			return err
		}
		if err := t.Remove(key); err != nil {
			return err
		}
		root, err := t.Commit()
		if err != nil {
			return err
		}
		fmt.Println(hex.EncodeToString(root))
		return nil
	},
}

var commitCmd = &cli.Command{
	Name:  "commit",
	Usage: "commit the current working tree and print its root hash",
	Flags: []cli.Flag{bitsFlag, dirFlag, standaloneFlag},
	Action: func(c *cli.Context) error {
		t, err := openTree(c)
		if err != nil {
			return err
		}
		defer t.Close()
		root, err := t.Commit()
		if err != nil {
			return err
		}
		fmt.Println(hex.EncodeToString(root))
		return nil
	},
}

var proveCmd = &cli.Command{
	Name:      "prove",
	Usage:     "print a hex-encoded inclusion/exclusion proof for a key",
	Flags:     []cli.Flag{bitsFlag, dirFlag, standaloneFlag},
	ArgsUsage: "<hex-root> <hex-key>",
	Action: func(c *cli.Context) error {
		t, err := openTree(c)
		if err != nil {
			return err
		}
		defer t.Close()
		root, err := hex.DecodeString(c.Args().Get(0))
		if err != nil {
			return err
		}
		key, err := decodeKey(c.Args().Get(1), c.Int("bits"))
		if err != nil {
			return err
		}
		p, err := t.Prove(root, key)
		if err != nil {
			return err
		}
		fmt.Println(hex.EncodeToString(p))
		return nil
	},
}

var verifyCmd = &cli.Command{
	Name:      "verify",
	Usage:     "verify a hex-encoded proof against a root hash",
	Flags:     []cli.Flag{bitsFlag, dirFlag, standaloneFlag},
	ArgsUsage: "<hex-root> <hex-key> <hex-proof>",
	Action: func(c *cli.Context) error {
		t, err := openTree(c)
		if err != nil {
			return err
		}
		defer t.Close()
		root, err := hex.DecodeString(c.Args().Get(0))
		if err != nil {
			return err
		}
		key, err := decodeKey(c.Args().Get(1), c.Int("bits"))
		if err != nil {
			return err
		}
		proofBytes, err := hex.DecodeString(c.Args().Get(2))
		if err != nil {
			return err
		}
		code, value := t.Verify(root, key, proofBytes)
		fmt.Println(code)
		if code == proof.OKInclusion {
			fmt.Println(string(value))
		}
		return nil
	},
}

var infoCmd = &cli.Command{
	Name:  "info",
	Usage: "print the current root hash and tree statistics",
	Flags: []cli.Flag{bitsFlag, dirFlag, standaloneFlag},
	Action: func(c *cli.Context) error {
		t, err := openTree(c)
		if err != nil {
			return err
		}
		defer t.Close()
		root, err := t.RootHash()
		if err != nil {
			return err
		}
		stats, err := t.Stats()
		if err != nil {
			return err
		}
		fmt.Printf("root:      %s\n", hex.EncodeToString(root))
		fmt.Printf("leaves:    %d\n", stats.Leaves)
		fmt.Printf("max depth: %d\n", stats.MaxDepth)
		return nil
	},
}

var destroyCmd = &cli.Command{
	Name:  "destroy",
	Usage: "remove every file backing this tree",
	Flags: []cli.Flag{bitsFlag, dirFlag, standaloneFlag},
	Action: func(c *cli.Context) error {
		t, err := openTree(c)
		if err != nil {
			return err
		}
		if err := t.Close(); err != nil {
			return err
		}
		return t.Destroy()
	},
}
