package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/nexzo/platform/gomicro/database"
	"github.com/nexzo/platform/gomicro/model"
	"github.com/nexzo/platform/gomicro/validate"
)

// RulePack is one entry of a rule-pack file
type RulePack struct {
	TenantID   string                 `yaml:"tenantId" json:"tenantId" validate:"required,uuid"`
	PropertyID *string                `yaml:"propertyId" json:"propertyId" validate:"omitempty,uuid"`
	Region     *string                `yaml:"region" json:"region" validate:"omitempty,max=16"`
	RulePackID string                 `yaml:"rulePackId" json:"rulePackId" validate:"required,max=100"`
	Status     string                 `yaml:"status" json:"status" validate:"omitempty,oneof=active inactive"`
	Metadata   map[string]interface{} `yaml:"metadata" json:"metadata"`
}

// RulePackFile is the document read by rulepacks import
type RulePackFile struct {
	RulePacks []RulePack `yaml:"rulePacks"`
}

// ImportResult counts the rows written by an import
type ImportResult struct {
	Created int
	Updated int
}

// NewRulePacksCommand creates the rulepacks command group
func NewRulePacksCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rulepacks",
		Short: "Manage compliance rule packs",
	}
	cmd.AddCommand(newRulePacksImportCommand())
	return cmd
}

func newRulePacksImportCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file.yaml>",
		Short: "Upsert compliance rule packs from a YAML file",
		Long: `Upsert compliance rule packs from a YAML file.

Rows are matched on tenant, property and rule pack id. The whole file is
applied in one transaction: any invalid entry leaves the database untouched.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			db, log, closeDB, err := connect()
			if err != nil {
				return err
			}
			defer closeDB()

			result, err := ImportRulePacks(cmd.Context(), db, f)
			if err != nil {
				return err
			}
			log.Info("Rule packs imported",
				zap.String("file", args[0]),
				zap.Int("created", result.Created),
				zap.Int("updated", result.Updated))
			fmt.Fprintf(cmd.OutOrStdout(), "created %d, updated %d rule packs\n", result.Created, result.Updated)
			return nil
		},
	}
}

// ParseRulePacks decodes and validates a rule-pack document. Unknown keys
// are rejected.
func ParseRulePacks(r io.Reader) ([]RulePack, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var doc RulePackFile
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("rule pack file is empty")
		}
		return nil, fmt.Errorf("parsing rule packs: %w", err)
	}

	v := validate.New()
	for i := range doc.RulePacks {
		if err := v.Validate(&doc.RulePacks[i]); err != nil {
			return nil, fmt.Errorf("rule pack %d: %w", i+1, err)
		}
		if doc.RulePacks[i].Status == "" {
			doc.RulePacks[i].Status = model.StatusActive
		}
	}
	return doc.RulePacks, nil
}

// ImportRulePacks upserts every rule pack read from r
func ImportRulePacks(ctx context.Context, db *gorm.DB, r io.Reader) (ImportResult, error) {
	packs, err := ParseRulePacks(r)
	if err != nil {
		return ImportResult{}, err
	}

	var result ImportResult
	err = database.Transaction(ctx, db, func(tx *gorm.DB) error {
		for i, pack := range packs {
			created, err := upsertRulePack(tx, pack)
			if err != nil {
				return fmt.Errorf("rule pack %d (%s): %w", i+1, pack.RulePackID, err)
			}
			if created {
				result.Created++
			} else {
				result.Updated++
			}
		}
		return nil
	})
	if err != nil {
		return ImportResult{}, err
	}
	return result, nil
}

func upsertRulePack(tx *gorm.DB, pack RulePack) (bool, error) {
	var tenants int64
	if err := tx.Model(&model.Tenant{}).Where("id = ?", pack.TenantID).Count(&tenants).Error; err != nil {
		return false, err
	}
	if tenants == 0 {
		return false, fmt.Errorf("tenant %s not found", pack.TenantID)
	}

	var metadata datatypes.JSON
	if pack.Metadata != nil {
		raw, err := json.Marshal(pack.Metadata)
		if err != nil {
			return false, fmt.Errorf("encoding metadata: %w", err)
		}
		metadata = raw
	}

	q := tx.Where("tenant_id = ? AND rule_pack_id = ?", pack.TenantID, pack.RulePackID)
	if pack.PropertyID == nil {
		q = q.Where("property_id IS NULL")
	} else {
		q = q.Where("property_id = ?", *pack.PropertyID)
	}

	var existing model.ComplianceRuleState
	res := q.Limit(1).Find(&existing)
	if res.Error != nil {
		return false, res.Error
	}

	if res.RowsAffected == 0 {
		rulePackID := pack.RulePackID
		state := &model.ComplianceRuleState{
			TenantID:   pack.TenantID,
			PropertyID: pack.PropertyID,
			Region:     pack.Region,
			RulePackID: &rulePackID,
			Metadata:   metadata,
			Status:     pack.Status,
		}
		return true, tx.Create(state).Error
	}

	return false, tx.Model(&existing).Updates(map[string]interface{}{
		"region":   pack.Region,
		"metadata": metadata,
		"status":   pack.Status,
	}).Error
}
