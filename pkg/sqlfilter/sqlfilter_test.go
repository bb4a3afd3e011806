package sqlfilter

import (
	"reflect"
	"testing"
)

func TestCompile_Empty(t *testing.T) {
	sql, args := New().Compile()
	if sql != "" || args != nil {
		t.Errorf("空 Filter 应编译为空，实际 sql=%q args=%v", sql, args)
	}
}

func TestCompile_Conjunction(t *testing.T) {
	f := New().
		Eq("a.subject_code", "CS101").
		Gte("a.attendance_date", "2024-01-01").
		Lte("a.attendance_date", "2024-06-30")

	sql, args := f.Compile()
	want := "a.subject_code = ? AND a.attendance_date >= ? AND a.attendance_date <= ?"
	if sql != want {
		t.Errorf("期望 %q，实际 %q", want, sql)
	}
	if !reflect.DeepEqual(args, []interface{}{"CS101", "2024-01-01", "2024-06-30"}) {
		t.Errorf("参数不符: %v", args)
	}
}

func TestEqIfPresent_SkipsEmpty(t *testing.T) {
	f := New().EqIfPresent("a.status", "").EqIfPresent("a.class_id", "c-1")

	if f.Len() != 1 {
		t.Fatalf("缺省参数不应产生谓词，实际谓词数=%d", f.Len())
	}
	sql, args := f.Compile()
	if sql != "a.class_id = ?" || len(args) != 1 || args[0] != "c-1" {
		t.Errorf("编译结果不符: %q %v", sql, args)
	}
}

func TestCompile_ExistsAndIn(t *testing.T) {
	f := New().
		Exists("SELECT 1 FROM classes c WHERE c.class_id = a.class_id AND c.department_id = ?", "d-1").
		In("a.status", "present", "leave")

	sql, args := f.Compile()
	want := "EXISTS (SELECT 1 FROM classes c WHERE c.class_id = a.class_id AND c.department_id = ?) AND a.status IN (?, ?)"
	if sql != want {
		t.Errorf("期望 %q，实际 %q", want, sql)
	}
	if !reflect.DeepEqual(args, []interface{}{"d-1", "present", "leave"}) {
		t.Errorf("参数不符: %v", args)
	}
}

func TestCompile_EmptyInMatchesNothing(t *testing.T) {
	sql, args := New().In("a.class_id").Compile()
	if sql != "1 = 0" || len(args) != 0 {
		t.Errorf("空 IN 应编译为恒假条件，实际 %q %v", sql, args)
	}
}

func TestMerge(t *testing.T) {
	scope := New().Eq("a.student_id", "s-1")
	f := New().Eq("a.semester", 3).Merge(scope).Merge(nil)

	if f.Len() != 2 {
		t.Fatalf("期望 2 个谓词，实际 %d", f.Len())
	}
	preds := f.Predicates()
	if preds[1].Column != "a.student_id" || preds[1].Op != OpEq {
		t.Errorf("合并后的谓词不符: %+v", preds[1])
	}
}
