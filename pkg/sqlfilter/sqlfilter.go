// Package sqlfilter 提供可选条件的类型化 WHERE 子句构造器。
//
// 每个谓词由 (列, 运算符, 值) 组成，Compile 生成带 ? 占位符的参数化 SQL 片段，
// 可脱离数据库单独测试；Apply 将其附加到 GORM 查询上。
// 所有 *IfPresent 方法遵循"参数缺省即不加条件"的约定。
package sqlfilter

import (
	"strings"

	"gorm.io/gorm"
)

// Op 谓词运算符
type Op string

const (
	OpEq     Op = "="
	OpGte    Op = ">="
	OpLte    Op = "<="
	OpIn     Op = "IN"
	OpExists Op = "EXISTS"
)

// Predicate 单个谓词
// OpExists 时 Column 存放子查询，Args 为子查询参数
type Predicate struct {
	Column string
	Op     Op
	Value  interface{}
	Args   []interface{}
}

// Filter 谓词合取列表
type Filter struct {
	preds []Predicate
}

// New 创建空 Filter
func New() *Filter {
	return &Filter{}
}

// Eq 追加 column = value
func (f *Filter) Eq(column string, value interface{}) *Filter {
	f.preds = append(f.preds, Predicate{Column: column, Op: OpEq, Value: value})
	return f
}

// Gte 追加 column >= value
func (f *Filter) Gte(column string, value interface{}) *Filter {
	f.preds = append(f.preds, Predicate{Column: column, Op: OpGte, Value: value})
	return f
}

// Lte 追加 column <= value
func (f *Filter) Lte(column string, value interface{}) *Filter {
	f.preds = append(f.preds, Predicate{Column: column, Op: OpLte, Value: value})
	return f
}

// In 追加 column IN (values...)；空集合编译为恒假条件
func (f *Filter) In(column string, values ...interface{}) *Filter {
	f.preds = append(f.preds, Predicate{Column: column, Op: OpIn, Value: values})
	return f
}

// Exists 追加 EXISTS (subquery)
func (f *Filter) Exists(subquery string, args ...interface{}) *Filter {
	f.preds = append(f.preds, Predicate{Column: subquery, Op: OpExists, Args: args})
	return f
}

// EqIfPresent value 非空时追加 column = value
func (f *Filter) EqIfPresent(column, value string) *Filter {
	if value == "" {
		return f
	}
	return f.Eq(column, value)
}

// Merge 追加另一个 Filter 的全部谓词
func (f *Filter) Merge(other *Filter) *Filter {
	if other != nil {
		f.preds = append(f.preds, other.preds...)
	}
	return f
}

// Len 谓词数量
func (f *Filter) Len() int {
	return len(f.preds)
}

// Predicates 返回谓词副本
func (f *Filter) Predicates() []Predicate {
	out := make([]Predicate, len(f.preds))
	copy(out, f.preds)
	return out
}

// Compile 生成参数化 SQL 片段（谓词以 AND 连接）与参数列表
// 无谓词时返回空串与 nil
func (f *Filter) Compile() (string, []interface{}) {
	if len(f.preds) == 0 {
		return "", nil
	}

	parts := make([]string, 0, len(f.preds))
	var args []interface{}
	for _, p := range f.preds {
		switch p.Op {
		case OpExists:
			parts = append(parts, "EXISTS ("+p.Column+")")
			args = append(args, p.Args...)
		case OpIn:
			values, _ := p.Value.([]interface{})
			if len(values) == 0 {
				parts = append(parts, "1 = 0")
				continue
			}
			parts = append(parts, p.Column+" IN ("+placeholders(len(values))+")")
			args = append(args, values...)
		default:
			parts = append(parts, p.Column+" "+string(p.Op)+" ?")
			args = append(args, p.Value)
		}
	}

	return strings.Join(parts, " AND "), args
}

// Apply 将谓词附加到 GORM 查询
func (f *Filter) Apply(db *gorm.DB) *gorm.DB {
	sql, args := f.Compile()
	if sql == "" {
		return db
	}
	return db.Where(sql, args...)
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}
