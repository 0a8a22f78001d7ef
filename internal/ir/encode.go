package ir

import (
	"fmt"
	"strconv"
)

// EncodeDAG converts a DAG to a Value tree. BuildID is excluded so that
// two builds of the same plan encode identically.
func EncodeDAG(d *DAG) Object {
	nodes := make(Array, len(d.Nodes))
	for i, n := range d.Nodes {
		nodes[i] = EncodeNode(n)
	}
	return Object{
		"ir_version": String(IRVersion),
		"nodes":      nodes,
	}
}

// EncodeNode converts one node to a Value tree.
func EncodeNode(n Node) Object {
	obj := Object{
		"id":     Int(n.ID()),
		"kind":   String(n.Kind().String()),
		"arity":  Int(n.Arity()),
		"inputs": encodeIDs(n.Inputs()),
	}
	switch v := n.(type) {
	case *Scan:
		obj["table"] = String(v.Table.Name)
		obj["field_names"] = encodeStrings(v.FieldNames)
	case *Project:
		obj["exprs"] = encodeScalars(v.Exprs)
		obj["fields"] = encodeStrings(v.Fields)
	case *Filter:
		obj["condition"] = EncodeScalar(v.Condition)
	case *Aggregate:
		obj["group"] = encodeInts(v.Group)
		obj["aggs"] = encodeAggs(v.Aggs)
		obj["fields"] = encodeStrings(v.Fields)
	case *Join:
		obj["join_type"] = String(v.JoinKind)
		obj["condition"] = EncodeScalar(v.Condition)
	case *Compound:
		if v.Filter != nil {
			obj["filter"] = EncodeScalar(v.Filter)
		}
		obj["exprs"] = encodeScalars(v.Exprs)
		obj["expr_fields"] = encodeStrings(v.ExprFields)
		if v.Aggregate != nil {
			obj["aggregate"] = Object{
				"group":  encodeInts(v.Aggregate.Group),
				"aggs":   encodeAggs(v.Aggregate.Aggs),
				"fields": encodeStrings(v.Aggregate.Fields),
			}
		}
		if v.Rename != nil {
			obj["rename"] = Object{
				"columns": encodeInts(v.Rename.Columns),
				"fields":  encodeStrings(v.Rename.Fields),
			}
		}
		obj["fused"] = encodeIDs(v.Fused)
	}
	return obj
}

// EncodeScalar converts a scalar expression to a Value tree.
func EncodeScalar(s Scalar) Value {
	switch v := s.(type) {
	case nil:
		return Null{}
	case *AbstractInput:
		return Object{"abstract_input": Int(v.Index)}
	case *Input:
		return Object{"input": Object{"node": Int(v.Source), "index": Int(v.Index)}}
	case *Literal:
		return Object{
			"literal":        encodeDatum(v.Value),
			"type":           String(v.Type),
			"scale":          Int(v.Scale),
			"precision":      Int(v.Precision),
			"type_scale":     Int(v.TypeScale),
			"type_precision": Int(v.TypePrecision),
		}
	case *Operator:
		return Object{"op": String(v.Op), "operands": encodeScalars(v.Operands)}
	case *Agg:
		return encodeAgg(v)
	default:
		panic(fmt.Sprintf("ir: unknown scalar %T", s))
	}
}

func encodeDatum(d Datum) Value {
	switch v := d.(type) {
	case IntDatum:
		return Int(v)
	case DoubleDatum:
		return String(strconv.FormatFloat(float64(v), 'g', -1, 64))
	case StringDatum:
		return String(v)
	case BoolDatum:
		return Bool(v)
	default:
		return Null{}
	}
}

func encodeAgg(a *Agg) Object {
	return Object{
		"agg":      String(a.Kind),
		"distinct": Bool(a.Distinct),
		"type":     String(a.Type),
		"nullable": Bool(a.Nullable),
		"operands": encodeInts(a.Operands),
	}
}

func encodeAggs(aggs []*Agg) Array {
	arr := make(Array, len(aggs))
	for i, a := range aggs {
		arr[i] = encodeAgg(a)
	}
	return arr
}

func encodeScalars(ss []Scalar) Array {
	arr := make(Array, len(ss))
	for i, s := range ss {
		arr[i] = EncodeScalar(s)
	}
	return arr
}

func encodeStrings(ss []string) Array {
	arr := make(Array, len(ss))
	for i, s := range ss {
		arr[i] = String(s)
	}
	return arr
}

func encodeInts(ns []int) Array {
	arr := make(Array, len(ns))
	for i, n := range ns {
		arr[i] = Int(n)
	}
	return arr
}

func encodeIDs(ids []NodeID) Array {
	arr := make(Array, len(ids))
	for i, id := range ids {
		arr[i] = Int(id)
	}
	return arr
}
