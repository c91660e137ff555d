package recon

// 文档注释：跨层级守恒校验
// 背景：缩放视图（城市 → 国家）时展示的总票数不得变化；这是整个引擎必须保证的不变量。
// 约束：六个层级必须全部存在且 ReconciliationComplete；各层总票数必须等于 GPS 层基准 level0Total。
func ValidateReconciliation(votes map[Level]*LevelResult, level0Total int64) error {
	for _, l := range Levels {
		lr, ok := votes[l]
		if !ok || lr == nil || !lr.ReconciliationComplete {
			return &Error{Kind: KindIncompleteLevel, Level: l}
		}
	}
	for _, l := range Levels {
		if got := votes[l].TotalVotes; got != level0Total {
			return &Error{Kind: KindVoteConservationViolation, Level: l, Expected: level0Total, Actual: got}
		}
	}
	return nil
}
