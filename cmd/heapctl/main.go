// Command heapctl is a small interactive shell for poking at a heapdb
// database: listing tables, dumping histogram-based statistics, and
// running a plain sequential scan. It is deliberately not a SQL shell —
// there is no parser here, just a handful of fixed commands.
package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/chzyer/readline"

	"heapdb/heapdb"
)

func main() {
	db, err := heapdb.NewDatabase()
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to start database:", err)
		os.Exit(1)
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "heapdb> ",
		HistoryFile:     "/tmp/heapctl_history",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to start shell:", err)
		os.Exit(1)
	}
	defer rl.Close()

	fmt.Println("heapctl - type 'help' for commands")
	for {
		line, err := rl.Readline()
		if err == readline.ErrInterrupt {
			continue
		}
		if err == io.EOF {
			return
		}
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return
		}
		runCommand(db, strings.TrimSpace(line))
	}
}

func runCommand(db *heapdb.Database, line string) {
	if line == "" {
		return
	}
	fields := strings.Fields(line)
	switch fields[0] {
	case "help":
		fmt.Println("commands: tables | stats <table> | scan <table> | quit")
	case "tables":
		it := db.Catalog.TableIdIterator()
		for id, ok := it(); ok; id, ok = it() {
			name, err := db.Catalog.GetTableName(id)
			if err != nil {
				continue
			}
			fmt.Println(name)
		}
	case "stats":
		if len(fields) != 2 {
			fmt.Println("usage: stats <table>")
			return
		}
		stats, err := db.Stats(fields[1])
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return
		}
		fmt.Printf("tuples=%d scanCost=%d\n", stats.TotalTuples(), stats.EstimateScanCost())
	case "scan":
		if len(fields) != 2 {
			fmt.Println("usage: scan <table>")
			return
		}
		runScan(db, fields[1])
	case "quit", "exit":
		os.Exit(0)
	default:
		fmt.Println("unknown command, try 'help'")
	}
}

func runScan(db *heapdb.Database, tableName string) {
	file, err := db.Catalog.GetDatabaseFile(tableName)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return
	}
	tid := heapdb.NewTID()
	if err := db.BufferPool.BeginTransaction(tid); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return
	}
	iter, err := file.Iterator(tid)
	if err != nil {
		db.BufferPool.AbortTransaction(tid)
		fmt.Fprintln(os.Stderr, err)
		return
	}
	fmt.Println(file.TupleDesc().HeaderString(false))
	for {
		t, err := iter()
		if err != nil {
			db.BufferPool.AbortTransaction(tid)
			fmt.Fprintln(os.Stderr, err)
			return
		}
		if t == nil {
			break
		}
		fmt.Println(t.PrettyPrintString(false))
	}
	if err := db.BufferPool.CommitTransaction(tid); err != nil {
		fmt.Fprintln(os.Stderr, err)
	}
}
