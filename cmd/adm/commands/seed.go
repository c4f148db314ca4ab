package commands

import (
	"context"
	"os"

	"repairlog/internal/models"
	"repairlog/internal/observability"
	"repairlog/internal/services"
	contextutils "repairlog/internal/utils"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// seedFile is the YAML shape consumed by `adm seed catalogues`. Faults
// reference features by name so the file stays readable.
type seedFile struct {
	Products []seedProduct `yaml:"products"`
}

type seedProduct struct {
	Name               string      `yaml:"name"`
	Features           []string    `yaml:"features"`
	Faults             []seedFault `yaml:"faults"`
	RepairActions      []string    `yaml:"repair_actions"`
	ReasonsNotRepaired []string    `yaml:"reasons_not_repaired"`
}

type seedFault struct {
	Name     string   `yaml:"name"`
	Features []string `yaml:"features"`
}

// SeedCommands returns the catalogue seeding commands
func SeedCommands(catalog *services.CatalogService, logger *observability.Logger) *cobra.Command {
	seedCmd := &cobra.Command{
		Use:   "seed",
		Short: "Catalogue seeding commands",
	}

	seedCmd.AddCommand(seedCataloguesCmd(catalog, logger))

	return seedCmd
}

func seedCataloguesCmd(catalog *services.CatalogService, logger *observability.Logger) *cobra.Command {
	var filePath string

	cmd := &cobra.Command{
		Use:   "catalogues",
		Short: "Seed products, features, faults, repair actions and reasons from a YAML file",
		RunE: func(_ *cobra.Command, _ []string) error {
			ctx := context.Background()

			data, err := os.ReadFile(filePath)
			if err != nil {
				return contextutils.WrapErrorf(err, "failed to read seed file %s", filePath)
			}

			var seed seedFile
			if err := yaml.Unmarshal(data, &seed); err != nil {
				return contextutils.WrapError(err, "failed to parse seed file")
			}

			for _, p := range seed.Products {
				if err := seedOneProduct(ctx, catalog, logger, p); err != nil {
					return err
				}
			}

			logger.Info(ctx, "Catalogue seeding completed", map[string]interface{}{"products": len(seed.Products), "file": filePath})
			return nil
		},
	}

	cmd.Flags().StringVar(&filePath, "file", "seed.yaml", "Path to the catalogue seed file")

	return cmd
}

func seedOneProduct(ctx context.Context, catalog *services.CatalogService, logger *observability.Logger, p seedProduct) error {
	product, err := catalog.CreateProduct(ctx, &models.Product{Name: p.Name})
	if err != nil {
		return contextutils.WrapErrorf(err, "failed to create product %q", p.Name)
	}

	featureIDs := make(map[string]int, len(p.Features))
	for _, name := range p.Features {
		feature, err := catalog.CreateFeature(ctx, &models.Feature{ProductID: product.ID, Name: name})
		if err != nil {
			return contextutils.WrapErrorf(err, "failed to create feature %q", name)
		}
		featureIDs[name] = feature.ID
	}

	for _, f := range p.Faults {
		ids := make([]int, 0, len(f.Features))
		for _, name := range f.Features {
			id, ok := featureIDs[name]
			if !ok {
				return contextutils.ErrorWithContextf("fault %q references unknown feature %q", f.Name, name)
			}
			ids = append(ids, id)
		}
		if _, err := catalog.CreateFault(ctx, &models.Fault{ProductID: product.ID, Name: f.Name, FeatureIDs: ids}); err != nil {
			return contextutils.WrapErrorf(err, "failed to create fault %q", f.Name)
		}
	}

	for _, name := range p.RepairActions {
		if _, err := catalog.CreateRepairAction(ctx, &models.RepairAction{ProductID: product.ID, Name: name}); err != nil {
			return contextutils.WrapErrorf(err, "failed to create repair action %q", name)
		}
	}

	for _, name := range p.ReasonsNotRepaired {
		if _, err := catalog.CreateReasonNotRepaired(ctx, &models.ReasonNotRepaired{ProductID: product.ID, Name: name}); err != nil {
			return contextutils.WrapErrorf(err, "failed to create reason %q", name)
		}
	}

	logger.Info(ctx, "Seeded product catalogue", map[string]interface{}{
		"product":  p.Name,
		"features": len(p.Features),
		"faults":   len(p.Faults),
	})
	return nil
}
