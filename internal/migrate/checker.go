package migrate

import (
	"sort"

	"github.com/leoyy0316/incubator-paimon/internal/catalog"
	"github.com/leoyy0316/incubator-paimon/internal/table"
)

// checkSourceTable rejects source tables the engine cannot relocate. Sources
// with a primary key use merge-on-read layouts whose files cannot be taken
// over as-is.
func checkSourceTable(primaryKeys []string) error {
	if len(primaryKeys) > 0 {
		return validationf("cannot migrate a primary key table")
	}
	return nil
}

// checkTargetTable rejects target tables that cannot accept relocated files.
func checkTargetTable(t *table.FileStoreTable) error {
	if !t.Kind().SupportsDirectRelocation() {
		return validationf("target table kind %s does not support direct file relocation", t.Kind())
	}
	if t.BucketMode() != table.BucketUnaware {
		return validationf("target table must use unaware-bucket mode, has %s", t.BucketMode())
	}
	return nil
}

// checkCompatible verifies the partition columns of both sides match by
// (name, type). Both lists are compared sorted by name, so the verdict does
// not depend on either side's declaration order.
func checkCompatible(src *catalog.Table, target *table.FileStoreTable) error {
	targetFields, err := target.PartitionFields()
	if err != nil {
		return err
	}
	if len(src.PartitionKeys) != len(targetFields) {
		return validationf("source has %d partition columns, target has %d",
			len(src.PartitionKeys), len(targetFields))
	}

	sourceSorted := make([]catalog.Field, len(src.PartitionKeys))
	copy(sourceSorted, src.PartitionKeys)
	sort.Slice(sourceSorted, func(i, j int) bool { return sourceSorted[i].Name < sourceSorted[j].Name })

	targetSorted := make([]table.DataField, len(targetFields))
	copy(targetSorted, targetFields)
	sort.Slice(targetSorted, func(i, j int) bool { return targetSorted[i].Name < targetSorted[j].Name })

	for i := range sourceSorted {
		s, t := sourceSorted[i], targetSorted[i]
		if s.Name != t.Name {
			return validationf("partition column mismatch: source %q vs target %q", s.Name, t.Name)
		}
		translated, err := table.TranslateType(s.Type)
		if err != nil {
			return validationf("partition column %q: %v", s.Name, err)
		}
		if translated != t.Type {
			return validationf("partition column %q type mismatch: source %s vs target %s",
				s.Name, translated, t.Type)
		}
	}
	return nil
}
