package catalog

import "payroll-import/internal/domain"

var employeeNameField = domain.CanonicalField{
	Name:        domain.FieldEmployeeName,
	DisplayName: "员工姓名",
	Aliases:     []string{"姓名", "人员姓名", "职工姓名", "name", "employee name", "full name"},
	Required:    true,
	Kind:        domain.KindBasic,
}

var employeeCodeField = domain.CanonicalField{
	Name:        domain.FieldEmployeeCode,
	DisplayName: "员工编号",
	Aliases:     []string{"工号", "人员编号", "职工编号", "employee code", "employee id", "staff no"},
	Kind:        domain.KindBasic,
}

var idNumberField = domain.CanonicalField{
	Name:        domain.FieldIDNumber,
	DisplayName: "身份证号",
	Aliases:     []string{"身份证号码", "证件号码", "id number", "id card"},
	Kind:        domain.KindBasic,
}

var jobFields = []domain.CanonicalField{
	{
		Name:        domain.FieldDepartment,
		DisplayName: "部门",
		Aliases:     []string{"部门名称", "所属部门", "department"},
		Group:       domain.GroupJob,
		Kind:        domain.KindAssignment,
	},
	{
		Name:        domain.FieldPosition,
		DisplayName: "职位",
		Aliases:     []string{"职位名称", "岗位", "岗位名称", "position", "job title"},
		Group:       domain.GroupJob,
		Kind:        domain.KindAssignment,
	},
	{
		Name:        domain.FieldRank,
		DisplayName: "职级",
		Aliases:     []string{"职务级别", "职级名称", "rank", "job level"},
		Group:       domain.GroupJob,
		Kind:        domain.KindAssignment,
	},
	{
		Name:        domain.FieldHireDate,
		DisplayName: "入职日期",
		Aliases:     []string{"入职时间", "参加工作时间", "hire date"},
		Group:       domain.GroupJob,
		Kind:        domain.KindBasic,
	},
	{
		Name:        domain.FieldEmploymentStatus,
		DisplayName: "员工状态",
		Aliases:     []string{"在职状态", "人员状态", "status", "employment status"},
		Group:       domain.GroupJob,
		Kind:        domain.KindBasic,
	},
}

var categoryField = domain.CanonicalField{
	Name:        domain.FieldCategory,
	DisplayName: "人员类别",
	Aliases:     []string{"人员类别名称", "人员身份", "身份类别", "personnel category", "category"},
	Group:       domain.GroupCategory,
	Kind:        domain.KindAssignment,
}

// basicFields returns the fixed identity fields stamped with the group.
func basicFields(group domain.DatasetGroup) []domain.CanonicalField {
	out := []domain.CanonicalField{employeeNameField, employeeCodeField, idNumberField}
	for i := range out {
		out[i].Group = group
	}
	return out
}

// sheetAliases lists known sheet names per group, most specific first.
var sheetAliases = map[domain.DatasetGroup][]string{
	domain.GroupEarnings: {"工资明细", "薪资明细", "工资表", "薪酬", "工资", "earnings", "payroll", "salary"},
	domain.GroupBases:    {"缴费基数", "社保基数", "基数", "contribution bases", "bases"},
	domain.GroupJob:      {"职务信息", "岗位信息", "人员职务", "job", "assignments"},
	domain.GroupCategory: {"人员类别", "人员身份", "身份类别", "category", "categories"},
}

// SheetAliases returns the known sheet names of a group.
func SheetAliases(group domain.DatasetGroup) []string {
	return append([]string(nil), sheetAliases[group]...)
}

// GroupInfo describes one dataset group.
type GroupInfo struct {
	Group        domain.DatasetGroup `json:"dataset_group"`
	DisplayName  string              `json:"display_name"`
	SheetAliases []string            `json:"sheet_aliases"`
}

var groupNames = map[domain.DatasetGroup]string{
	domain.GroupEarnings: "工资明细",
	domain.GroupBases:    "缴费基数",
	domain.GroupJob:      "职务信息",
	domain.GroupCategory: "人员类别",
}

// Groups lists every dataset group in import order.
func Groups() []GroupInfo {
	out := make([]GroupInfo, 0, len(domain.ValidGroups))
	for _, g := range domain.ValidGroups {
		out = append(out, GroupInfo{Group: g, DisplayName: groupNames[g], SheetAliases: SheetAliases(g)})
	}
	return out
}
