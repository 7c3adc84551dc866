// Command viewer dumps the chat room's Badger store as readable tables.
// It opens the database read-only, so it can run next to a live server.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"chat-room/domain"

	"github.com/dgraph-io/badger/v4"
	"github.com/fxamacker/cbor/v2"
	"github.com/gookit/color"
	"github.com/olekukonko/tablewriter"
)

func main() {
	dbPath := flag.String("db", "./badger", "Path to badger DB")
	flag.Parse()

	// BypassLockGuard allows opening while the server holds the lock
	opts := badger.DefaultOptions(*dbPath).
		WithReadOnly(true).
		WithBypassLockGuard(true).
		WithLoggingLevel(badger.WARNING)

	db, err := badger.Open(opts)
	if err != nil {
		log.Fatal("Error while opening Badger: ", err)
	}
	defer db.Close()

	printHeader("PARTICIPANTS")
	if err := renderParticipants(db); err != nil {
		log.Fatal(err)
	}

	printHeader("MESSAGES")
	if err := renderMessages(db); err != nil {
		log.Fatal(err)
	}
}

func printHeader(title string) {
	fmt.Println(color.New(color.BgBlack, color.FgGreen).Render("  ====== " + title + " ======"))
}

func newTable(headers []string) *tablewriter.Table {
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader(headers)
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("\t")
	return table
}

func renderParticipants(db *badger.DB) error {
	table := newTable([]string{"Name", "Last Status"})

	err := scanPrefix(db, "participant:", func(key string, val []byte) error {
		var record struct {
			Name       string `cbor:"name"`
			LastStatus int64  `cbor:"last_status"`
		}
		if err := cbor.Unmarshal(val, &record); err != nil {
			fmt.Printf("Error decoding key %s: %v\n", key, err)
			return nil
		}
		table.Append([]string{
			record.Name,
			time.Unix(0, record.LastStatus).UTC().Format("15:04:05"),
		})
		return nil
	})
	if err != nil {
		return err
	}
	table.Render()
	return nil
}

func renderMessages(db *badger.DB) error {
	table := newTable([]string{"ID", "Time", "Kind", "From", "To", "Text"})

	err := scanPrefix(db, "msg:", func(key string, val []byte) error {
		var record struct {
			ID   string `cbor:"id"`
			From string `cbor:"from"`
			To   string `cbor:"to"`
			Text string `cbor:"text"`
			Kind string `cbor:"kind"`
			At   int64  `cbor:"at"`
		}
		if err := cbor.Unmarshal(val, &record); err != nil {
			fmt.Printf("Error decoding key %s: %v\n", key, err)
			return nil
		}

		displayID := record.ID
		if len(displayID) > 8 {
			displayID = displayID[:8]
		}

		kind := record.Kind
		if kind == string(domain.KindStatus) {
			kind = color.FgYellow.Render(kind)
		}

		table.Append([]string{
			displayID,
			time.Unix(0, record.At).UTC().Format("15:04:05"),
			kind,
			record.From,
			record.To,
			record.Text,
		})
		return nil
	})
	if err != nil {
		return err
	}
	table.Render()
	return nil
}

func scanPrefix(db *badger.DB, prefix string, fn func(key string, val []byte) error) error {
	return db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefixBytes := []byte(prefix)
		for it.Seek(prefixBytes); it.ValidForPrefix(prefixBytes); it.Next() {
			item := it.Item()
			err := item.Value(func(v []byte) error {
				return fn(string(item.Key()), v)
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
}
