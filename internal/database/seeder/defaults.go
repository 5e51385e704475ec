package seeder

import "go.uber.org/zap"

// Defaults are the seeders run on server start.
func Defaults(seedFile string, importer Importer, logger *zap.Logger) []Seeder {
	return []Seeder{
		SystemConfigSeeder{Logger: logger},
		CVSeeder{File: seedFile, Importer: importer, Logger: logger},
	}
}
