// Copyright 2016 Google Inc. All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// smtcli is a script-driven demonstration client for the tree: it reads
// commands one per line from stdin (or a -script file) and runs them
// against a single in-process Tree.
//
// Commands:
//
//	update KEY VALUE
//	get KEY
//	delete KEY
//	prove KEY
//	verify KEY VALUE SIDE_NODE...
//	root
package main

import (
	"bufio"
	"context"
	"encoding/hex"
	"flag"
	"fmt"
	"io"
	"os"

	"bitbucket.org/creachadair/shell"
	"github.com/golang/glog"

	"github.com/smtree/smt/hashers"
	"github.com/smtree/smt/merkle"
	"github.com/smtree/smt/storage/memstore"
	"github.com/smtree/smt/storage/sqlstore"
)

var (
	script  = flag.String("script", "", "path to a command script; defaults to stdin")
	sqlDSN  = flag.String("sql_dsn", "", "if set, use a SQL-backed store with this DSN instead of an in-memory one")
	sqlKind = flag.String("sql_driver", "mysql", "driver to use with -sql_dsn: mysql or postgres")
	table   = flag.String("sql_table", "smt_nodes", "table name when -sql_dsn is set")
)

func main() {
	flag.Parse()

	tr, err := newTree()
	if err != nil {
		glog.Exitf("smtcli: %v", err)
	}

	in := os.Stdin
	if *script != "" {
		f, err := os.Open(*script)
		if err != nil {
			glog.Exitf("smtcli: opening -script: %v", err)
		}
		defer f.Close()
		in = f
	}

	if err := run(context.Background(), tr, in, os.Stdout); err != nil {
		glog.Exitf("smtcli: %v", err)
	}
}

func newTree() (*merkle.Tree, error) {
	if *sqlDSN == "" {
		return merkle.NewTree(merkle.Config{Hasher: hashers.SHA256, Store: memstore.New()})
	}
	store, err := sqlstore.Open(*sqlKind, *sqlDSN, *table)
	if err != nil {
		return nil, fmt.Errorf("opening sql store: %w", err)
	}
	return merkle.NewTree(merkle.Config{Hasher: hashers.SHA256, Store: store})
}

func run(ctx context.Context, tr *merkle.Tree, in io.Reader, out io.Writer) error {
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		line := scanner.Text()
		fields, ok := shell.Split(line)
		if !ok {
			fmt.Fprintf(out, "error: unbalanced quoting: %s\n", line)
			continue
		}
		if len(fields) == 0 {
			continue
		}
		if err := dispatch(ctx, tr, fields, out); err != nil {
			fmt.Fprintf(out, "error: %v\n", err)
		}
	}
	return scanner.Err()
}

func dispatch(ctx context.Context, tr *merkle.Tree, fields []string, out io.Writer) error {
	switch fields[0] {
	case "update":
		if len(fields) != 3 {
			return fmt.Errorf("usage: update KEY VALUE")
		}
		if err := tr.Update(ctx, []byte(fields[1]), []byte(fields[2])); err != nil {
			return err
		}
		fmt.Fprintf(out, "ok root=%s\n", hex.EncodeToString(tr.Root()))
		return nil

	case "get":
		if len(fields) != 2 {
			return fmt.Errorf("usage: get KEY")
		}
		v, found, err := tr.Get(ctx, []byte(fields[1]))
		if err != nil {
			return err
		}
		if !found {
			fmt.Fprintf(out, "not found\n")
			return nil
		}
		fmt.Fprintf(out, "%s\n", v)
		return nil

	case "delete":
		if len(fields) != 2 {
			return fmt.Errorf("usage: delete KEY")
		}
		if err := tr.Delete(ctx, []byte(fields[1])); err != nil {
			return err
		}
		fmt.Fprintf(out, "ok root=%s\n", hex.EncodeToString(tr.Root()))
		return nil

	case "prove":
		if len(fields) != 2 {
			return fmt.Errorf("usage: prove KEY")
		}
		proof, err := tr.Prove(ctx, []byte(fields[1]))
		if err != nil {
			return err
		}
		for i, sn := range proof.SideNodes {
			fmt.Fprintf(out, "side_node[%d]=%s\n", i, hex.EncodeToString(sn))
		}
		if proof.NonMembershipLeaf != nil {
			fmt.Fprintf(out, "non_membership_leaf path=%s value_hash=%s\n",
				hex.EncodeToString(proof.NonMembershipLeaf.Path),
				hex.EncodeToString(proof.NonMembershipLeaf.ValueHash))
		}
		return nil

	case "verify":
		if len(fields) < 3 {
			return fmt.Errorf("usage: verify KEY VALUE SIDE_NODE...")
		}
		value := []byte(fields[2])
		if fields[2] == "-" {
			value = merkle.AbsentValue
		}
		sideNodes := make([]merkle.Digest, len(fields)-3)
		for i, hx := range fields[3:] {
			d, err := hex.DecodeString(hx)
			if err != nil {
				return fmt.Errorf("decoding side node %d: %w", i, err)
			}
			sideNodes[i] = d
		}
		proof := &merkle.Proof{SideNodes: sideNodes}
		ok, err := tr.Verify(proof, []byte(fields[1]), value)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%t\n", ok)
		return nil

	case "root":
		fmt.Fprintf(out, "%s\n", hex.EncodeToString(tr.Root()))
		return nil

	default:
		return fmt.Errorf("unknown command %q", fields[0])
	}
}
