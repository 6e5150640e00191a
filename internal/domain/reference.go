package domain

// ReferenceDocument is the internal protocol summary consulted before any external
// knowledge source. It is embedded verbatim in every model instruction.
const ReferenceDocument = `
SCCCG-AML-2025 Protocol (Children ≤18y):
- Prognosis Good: t(8;21)(q22;q22.1)/RUNX1-RUNX1T1, inv(16)/t(16;16)(p13.1;q22)/CBFB-MYH11, NPM1 mutation (VAF > 10%), CEBPA-bZip (biallelic or single).
- Prognosis Intermediate: t(9;11)(p21.3;q23.3)/MLLT3-KMT2A, FLT3-ITD (if effective TKI used), NUP98-KDM5A with chr13 anomaly, t(8;16)(p11.2;p13.3).
- Prognosis Poor: Complex karyotype (>=3), Monosomal karyotype, t(6;9)(p23;q34.1)/DEK-NUP214, t(v;11q23.3)/KMT2A-r, t(9;22)/BCR-ABL1, inv(3)/t(3;3)/GATA2/MECOM, -5, del(5q), -7, -17/abn(17p), TP53 mutation (VAF > 10%).

SCCCG-ALL-2023 Protocol:
- Risk Categories: LR (Low Risk), IR (Intermediate Risk), HR (High Risk).
- High Risk Factors: d15 MRD >= 10%, d33 MRD >= 1%, W12 MRD >= 0.01%, MLL or MEF2D rearrangement, Hypodiploidy (<44 chr), iAMP21, IKZF1plus (unless DUX4-r), TCF3-HLF.
- Intermediate Risk: Ph-like ALL, Ph-ALL (t(9;22)), t(1;19)/TCF3-PBX1.
- Low Risk: t(12;21)/ETV6-RUNX1, Hyperdiploidy (>50 chr with +4,+10).

SCCCG-APL-2024:
- Diagnostic: PML-RARa/t(15;17).
- FLT3-ITD in APL is NOT considered a high-risk factor in this protocol.
- High Risk: Initial WBC > 10 x 10^9/L.

SCCCG-CML-2023:
- Diagnostic: BCR-ABL1 (P210, P190, P230).
- Monitoring: MR4.0 (0.01%), MR4.5 (0.0032%).
- Side effects of TKI: Growth delay, bone density decrease, endocrine issues.
`

// DefaultDisclaimer is used when the model omits the disclaimer.
const DefaultDisclaimer = "本结果由人工智能生成，仅供临床参考，不能替代专业医师的诊断与治疗决策。"
