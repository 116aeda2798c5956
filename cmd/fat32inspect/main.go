// Command fat32inspect is a non-interactive companion to fat32shell for
// scripting against a FAT32 image: one-shot geometry dumps and directory
// listings, optionally as CSV.
package main

import (
	"fmt"
	"log"
	"os"

	"github.com/gocarina/gocsv"
	"github.com/urfave/cli/v2"

	"github.com/dargueta/fat32shell/engine"
)

// geometryRow is the CSV-tagged projection of volume.Geometry, grounded on
// the same gocsv struct-tag shape the teacher uses for disk geometry
// records.
type geometryRow struct {
	BytesPerSector    uint16 `csv:"bytes_per_sector"`
	SectorsPerCluster uint8  `csv:"sectors_per_cluster"`
	RootCluster       uint32 `csv:"root_cluster"`
	TotalClusters     uint32 `csv:"total_clusters"`
	SectorsPerFAT     uint32 `csv:"sectors_per_fat"`
	ImageSize         int64  `csv:"image_size"`
}

// dirEntryRow is the CSV-tagged projection of one directory listing row.
type dirEntryRow struct {
	Name         string `csv:"name"`
	IsDirectory  bool   `csv:"is_directory"`
	FirstCluster uint32 `csv:"first_cluster"`
	Size         uint32 `csv:"size"`
}

func main() {
	app := &cli.App{
		Name:  "fat32inspect",
		Usage: "Non-interactive inspection of a FAT32 image",
		Commands: []*cli.Command{
			{
				Name:      "geometry",
				Usage:     "Print the volume's boot-sector geometry",
				ArgsUsage: "IMAGE",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "csv"},
				},
				Action: geometryCommand,
			},
			{
				Name:      "ls",
				Usage:     "List the root directory",
				ArgsUsage: "IMAGE",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "csv"},
				},
				Action: lsCommand,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatalf("fatal error: %s", err.Error())
	}
}

func geometryCommand(c *cli.Context) error {
	if c.NArg() != 1 {
		return cli.Exit("usage: fat32inspect geometry IMAGE", 1)
	}

	eng, err := engine.Open(c.Args().Get(0))
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}
	defer eng.Close()

	g := eng.Geometry()
	row := geometryRow{
		BytesPerSector:    g.BytesPerSector,
		SectorsPerCluster: g.SectorsPerCluster,
		RootCluster:       g.RootCluster,
		TotalClusters:     g.TotalClusters,
		SectorsPerFAT:     g.SectorsPerFAT,
		ImageSize:         g.ImageSize,
	}

	if c.Bool("csv") {
		return gocsv.Marshal(&[]geometryRow{row}, os.Stdout)
	}

	fmt.Printf("bytesPerSector: %d\n", row.BytesPerSector)
	fmt.Printf("sectorsPerCluster: %d\n", row.SectorsPerCluster)
	fmt.Printf("rootCluster: %d\n", row.RootCluster)
	fmt.Printf("totalClusters: %d\n", row.TotalClusters)
	fmt.Printf("sectorsPerFAT: %d\n", row.SectorsPerFAT)
	fmt.Printf("imageSize: %d\n", row.ImageSize)
	return nil
}

func lsCommand(c *cli.Context) error {
	if c.NArg() != 1 {
		return cli.Exit("usage: fat32inspect ls IMAGE", 1)
	}

	eng, err := engine.Open(c.Args().Get(0))
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}
	defer eng.Close()

	names, err := eng.List()
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}

	if !c.Bool("csv") {
		for _, n := range names {
			fmt.Println(n)
		}
		return nil
	}

	rows := make([]dirEntryRow, 0, len(names))
	for _, n := range names {
		if n == "." || n == ".." {
			rows = append(rows, dirEntryRow{Name: n, IsDirectory: true})
			continue
		}
		ent, err := eng.Lookup(n)
		if err != nil {
			continue
		}
		rows = append(rows, dirEntryRow{
			Name:         n,
			IsDirectory:  ent.IsDir(),
			FirstCluster: ent.FirstCluster,
			Size:         ent.FileSize,
		})
	}
	return gocsv.Marshal(&rows, os.Stdout)
}
