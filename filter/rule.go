package filter

import (
	"fmt"
	"sync"

	"github.com/google/cel-go/cel"
)

var (
	// celEnv 是全局的 CEL 环境，线程安全，可复用
	celEnv     *cel.Env
	celEnvOnce sync.Once
	celEnvErr  error
)

// getCELEnv 获取或创建 CEL 环境，定义候选可见的变量。
func getCELEnv() (*cel.Env, error) {
	celEnvOnce.Do(func() {
		celEnv, celEnvErr = cel.NewEnv(
			cel.Variable("id", cel.IntType),
			cel.Variable("distance", cel.DoubleType),
			cel.Variable("familiar", cel.BoolType),
			cel.Variable("tags", cel.MapType(cel.StringType, cel.DoubleType)),
		)
	})
	return celEnv, celEnvErr
}

// RuleFilter 是用 CEL (Common Expression Language) 表达的排除过滤器：
// 任何一条规则对候选求值为 true 即排除。规则来自配置，运营可以不改代码
// 下掉某类内容。
//
// 表达式语法（CEL 标准语法），可用变量：
//   - id: 物品 ID（int）
//   - distance: 与偏好向量的余弦距离（double）
//   - familiar: 是否已评分（bool）
//   - tags: 归一化后的非零标签权重（map[string]double）
//
// 示例：
//   - `"horror" in tags && tags["horror"] > 0.5` → 排除重度恐怖内容
//   - `familiar && distance > 0.8` → 排除相距过远的已评分物品
type RuleFilter struct {
	exprs    []string
	programs []cel.Program
}

// NewRuleFilter 编译一组排除规则。表达式编译失败立即报错（配置错误应
// 在进程启动时暴露，而不是在请求路径上逐次失败）。
func NewRuleFilter(exprs []string) (*RuleFilter, error) {
	env, err := getCELEnv()
	if err != nil {
		return nil, fmt.Errorf("cel env: %w", err)
	}

	programs := make([]cel.Program, 0, len(exprs))
	for _, expr := range exprs {
		ast, issues := env.Compile(expr)
		if issues != nil && issues.Err() != nil {
			return nil, fmt.Errorf("compile rule %q: %w", expr, issues.Err())
		}
		prg, err := env.Program(ast)
		if err != nil {
			return nil, fmt.Errorf("program rule %q: %w", expr, err)
		}
		programs = append(programs, prg)
	}
	return &RuleFilter{exprs: exprs, programs: programs}, nil
}

func (rf *RuleFilter) Name() string { return "filter.rule" }

// Excluded 依次对候选求值所有规则；单条规则求值出错时跳过该规则
// （规则错误不应使整个请求失败），任一规则为 true 即排除。
func (rf *RuleFilter) Excluded(c *Candidate) (bool, error) {
	if c == nil {
		return true, nil
	}
	input := map[string]any{
		"id":       c.ID,
		"distance": c.Distance,
		"familiar": c.Familiar,
		"tags":     c.Tags,
	}
	for _, prg := range rf.programs {
		out, _, err := prg.Eval(input)
		if err != nil {
			continue
		}
		if excluded, ok := out.Value().(bool); ok && excluded {
			return true, nil
		}
	}
	return false, nil
}

var _ Filter = (*RuleFilter)(nil)
