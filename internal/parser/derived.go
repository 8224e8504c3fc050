package parser

import (
	"fmt"
	"sort"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// derivedField 是一个编译好的派生字段
type derivedField struct {
	name    string
	source  string
	program *vm.Program
}

// exprEnv 是派生字段表达式的求值环境，
// Fields 为本帧全部 profile 解码值的并集
type exprEnv struct {
	Fields map[string]float64
}

// compileDerived 编译配置中的派生字段表达式，按字段名排序保证
// 求值顺序稳定。派生字段之间不可互相引用
func compileDerived(spec map[string]string) ([]derivedField, error) {
	if len(spec) == 0 {
		return nil, nil
	}
	names := make([]string, 0, len(spec))
	for name := range spec {
		names = append(names, name)
	}
	sort.Strings(names)

	derived := make([]derivedField, 0, len(names))
	for _, name := range names {
		source := spec[name]
		program, err := expr.Compile(source, expr.Env(exprEnv{}), expr.AsFloat64())
		if err != nil {
			return nil, fmt.Errorf("字段 %s (%q): %w", name, source, err)
		}
		derived = append(derived, derivedField{name: name, source: source, program: program})
	}
	return derived, nil
}

// evalDerived 在解码值上求出全部派生字段
func evalDerived(derived []derivedField, fields map[string]float64) (map[string]float64, error) {
	out := make(map[string]float64, len(derived))
	for _, d := range derived {
		result, err := expr.Run(d.program, exprEnv{Fields: fields})
		if err != nil {
			return nil, fmt.Errorf("字段 %s (%q): %w", d.name, d.source, err)
		}
		value, ok := result.(float64)
		if !ok {
			return nil, fmt.Errorf("字段 %s (%q): 结果不是数值: %T", d.name, d.source, result)
		}
		out[d.name] = value
	}
	return out, nil
}
