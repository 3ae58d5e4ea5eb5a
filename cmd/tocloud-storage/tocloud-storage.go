package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/rafaeljusto/tocloud/internal/config"
	"github.com/rafaeljusto/tocloud/internal/storage"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli"
)

var from, to, format formatOptions
var logger = logrus.New()

func main() {
	app := cli.NewApp()
	app.Name = "tocloud-storage"
	app.Usage = "Manage the local sync ledger of the tocloud tool"
	app.Version = config.Version
	app.Authors = []cli.Author{
		{
			Name:  "Rafael Dantas Justo",
			Email: "adm@rafael.net.br",
		},
	}
	app.Commands = []cli.Command{
		{
			Name:  "convert",
			Usage: "migrate the ledger to a new format",
			Flags: []cli.Flag{
				cli.GenericFlag{
					Name:  "from,f",
					Usage: "current ledger format",
					Value: &from,
				},
				cli.GenericFlag{
					Name:  "to,t",
					Usage: "desired ledger format",
					Value: &to,
				},
				cli.StringFlag{
					Name:  "output,o",
					Usage: "new ledger file to be created",
				},
			},
			ArgsUsage: "<db-file>",
			Action:    commandConvert,
		},
		{
			Name:    "remove",
			Aliases: []string{"rm"},
			Usage:   "forget that an activity was synced with a service",
			Flags: []cli.Flag{
				cli.GenericFlag{
					Name:  "format,f",
					Usage: "ledger format",
					Value: &format,
				},
			},
			ArgsUsage: "<db-file> <service> <activityID>",
			Action:    commandRemove,
		},
	}

	app.Run(os.Args)
}

func commandConvert(c *cli.Context) error {
	if from == to {
		fmt.Println("converting to the same format")
		return nil
	}

	if !c.Args().Present() {
		fmt.Println("input file not informed")
		return nil
	}

	output := c.String("output")
	if output == "" {
		fmt.Println("output file not informed")
		return nil
	}

	fromStorage := openStorage(from, c.Args().First())
	if fromStorage == nil {
		fmt.Printf("unknown “from” storage “%s”\n", from.value)
		return nil
	}

	toStorage := openStorage(to, output)
	if toStorage == nil {
		fmt.Printf("unknown “to” storage “%s”\n", to.value)
		return nil
	}

	records, err := fromStorage.List()
	if err != nil {
		fmt.Printf("error reading records. details: %s\n", err)
		return nil
	}

	if len(records) == 0 {
		fmt.Println("no records to save")
		return nil
	}

	for _, record := range records {
		if err := toStorage.Save(record); err != nil {
			fmt.Printf("error saving record “%s”. details: %s\n", record.Key(), err)
			return nil
		}
	}

	fmt.Printf("%d records converted\n", len(records))
	return nil
}

func commandRemove(c *cli.Context) error {
	if c.NArg() < 3 {
		fmt.Println("ledger file, service and activity must be informed")
		return nil
	}

	ledger := openStorage(format, c.Args().Get(0))
	if ledger == nil {
		fmt.Printf("unknown storage “%s”\n", format.value)
		return nil
	}

	if err := ledger.Remove(c.Args().Get(1), c.Args().Get(2)); err != nil {
		fmt.Printf("error removing record. details: %s\n", err)
	}

	return nil
}

func openStorage(f formatOptions, filename string) storage.Storage {
	switch f.value {
	case formatBoltDB:
		return storage.NewBoltDB(logger, filename)
	case formatAuditFile:
		return storage.NewAuditFile(logger, filename)
	}
	return nil
}

const (
	formatBoltDB    storageFormat = "boltdb"
	formatAuditFile storageFormat = "audit"
)

type storageFormat string

var possibleFormats = map[string]storageFormat{
	string(formatBoltDB):    formatBoltDB,
	string(formatAuditFile): formatAuditFile,
}

type formatOptions struct {
	value storageFormat
}

func (f *formatOptions) Set(value string) error {
	value = strings.TrimSpace(value)
	value = strings.ToLower(value)

	var ok bool
	if f.value, ok = possibleFormats[value]; !ok {
		return fmt.Errorf("possible values are %s or %s", formatBoltDB, formatAuditFile)
	}
	return nil
}

func (f formatOptions) String() string {
	return string(f.value)
}
