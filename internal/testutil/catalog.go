package testutil

import (
	"github.com/roach88/relalg/internal/catalog"
	"github.com/roach88/relalg/internal/ir"
)

// EmpTable is emp(id, name, dept_id, salary).
func EmpTable() *ir.TableDesc {
	return &ir.TableDesc{
		ID:   1,
		Name: "emp",
		Columns: []ir.ColumnDesc{
			{Name: "id", Type: "BIGINT"},
			{Name: "name", Type: "TEXT", Nullable: true},
			{Name: "dept_id", Type: "BIGINT", Nullable: true},
			{Name: "salary", Type: "DOUBLE", Nullable: true},
		},
	}
}

// DeptTable is dept(id, name).
func DeptTable() *ir.TableDesc {
	return &ir.TableDesc{
		ID:   10,
		Name: "dept",
		Columns: []ir.ColumnDesc{
			{Name: "id", Type: "BIGINT"},
			{Name: "name", Type: "TEXT"},
		},
	}
}

// Catalog returns a fresh catalog holding emp and dept, the same tables
// as internal/catalog/testdata/catalog.yaml.
func Catalog() *catalog.Memory {
	return catalog.NewMemory(EmpTable(), DeptTable())
}

// EmpScan is a plan starting with a full scan of emp.
func EmpScan() *Plan {
	return NewPlan().Scan("emp", "id", "name", "dept_id", "salary")
}
