package kadedb

import "testing"

func TestValueConstructorsAndType(t *testing.T) {
	cases := []struct {
		v    Value
		want ValueType
	}{
		{NewNull(), TypeNull},
		{NewInteger(7), TypeInteger},
		{NewFloat(3.5), TypeFloat},
		{NewString("hi"), TypeString},
		{NewBoolean(true), TypeBoolean},
	}
	for _, c := range cases {
		if c.v.Type() != c.want {
			t.Errorf("Type() = %v, want %v", c.v.Type(), c.want)
		}
	}
	if !NewNull().IsNull() {
		t.Error("NewNull() should report IsNull")
	}
	if NewInteger(0).IsNull() {
		t.Error("NewInteger(0) must not be null")
	}
}

func TestValueWideningConversions(t *testing.T) {
	i, err := NewFloat(3.9).AsInt()
	if err != nil || i != 3 {
		t.Errorf("AsInt truncation: got (%d, %v), want (3, nil)", i, err)
	}
	if b, err := NewInteger(1).AsBool(); err != nil || !b {
		t.Errorf("AsBool widening from integer: got (%v, %v)", b, err)
	}
	if f, err := NewBoolean(true).AsFloat(); err != nil || f != 1 {
		t.Errorf("AsFloat widening from boolean: got (%v, %v)", f, err)
	}
	if _, err := NewString("x").AsInt(); err == nil {
		t.Error("expected error converting string to integer")
	}
	if s, err := NewInteger(42).AsString(); err != nil || s != "42" {
		t.Errorf("AsString: got (%q, %v)", s, err)
	}
}

func TestValueCompareCrossNumericAndNull(t *testing.T) {
	if NewInteger(1).Compare(NewFloat(1.0)) != 0 {
		t.Error("integer and float of equal magnitude should compare equal")
	}
	if NewNull().Compare(NewInteger(0)) >= 0 {
		t.Error("null must sort before every non-null value")
	}
	if NewInteger(5).Compare(NewInteger(3)) <= 0 {
		t.Error("5 should compare greater than 3")
	}
	if !NewString("a").Equals(NewString("a")) {
		t.Error("equal strings should be Equals")
	}
	if NewBoolean(false).Compare(NewBoolean(true)) >= 0 {
		t.Error("false should order before true")
	}
}

func TestValueStringRendering(t *testing.T) {
	if NewNull().String() != "<null>" {
		t.Errorf("null rendering: got %q", NewNull().String())
	}
	if NewBoolean(true).String() != "true" {
		t.Errorf("boolean rendering: got %q", NewBoolean(true).String())
	}
	if NewString("raw").String() != "\"raw\"" {
		t.Errorf("string rendering should be quoted: got %q", NewString("raw").String())
	}
	if s, _ := NewString("raw").AsString(); s != "raw" {
		t.Errorf("AsString should stay unquoted: got %q", s)
	}
}

func TestValueCloneIsIndependent(t *testing.T) {
	v := NewString("original")
	clone := v.Clone()
	if !v.Equals(clone) {
		t.Error("clone should be equal to source")
	}
}
